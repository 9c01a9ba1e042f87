// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the SQL generation service.
//
// The service exposes two endpoints: a submission endpoint that accepts a
// natural-language query, and a result endpoint that always returns the most
// recent answer the service has produced. The client does not interpret
// answers; deciding whether an answer is new belongs to package query.
//
// # Usage
//
//	client := backend.NewClientWithConfig(&backend.ClientConfig{
//	    BaseURL: "http://127.0.0.1:5000",
//	})
//	if err := client.SubmitQuery(ctx, "show all users"); err != nil {
//	    // submission failed; the result endpoint may still be polled
//	}
//	answer, err := client.FetchResult(ctx)
//
// Client satisfies query.Transport.
package backend
