// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package query owns the conversation with the SQL generation service.
//
// A Client keeps the transcript (an append-only list of Entry values), the
// last answer it accepted, and a loading flag that allows exactly one
// submission in flight. A submission has two phases:
//
//   - Begin appends an entry whose reply is the Placeholder, synchronously,
//     before any network activity.
//   - Resolve sends the query to the service and then polls for a new answer
//     under a RetryPolicy, updating the entry identified by its ID.
//
// Submit runs both phases back to back.
//
// # Usage
//
//	client := query.NewClient(transport)
//	res, err := client.Submit(ctx, "show all users")
//	if err != nil {
//	    fmt.Println(client.Snapshot().Error)
//	}
//
// Presentation layers render from Snapshot and can Subscribe to be told when
// an entry is appended, answered, or when a submission settles.
package query
