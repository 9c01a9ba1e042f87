// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTheme_Explicit(t *testing.T) {
	dark := NewTheme("dark")
	assert.True(t, dark.IsDark)
	assert.Equal(t, ThemeDark, dark.Name)
	assert.Equal(t, "monokai", dark.ChromaStyle)

	light := NewTheme(" LIGHT ")
	assert.False(t, light.IsDark)
	assert.Equal(t, ThemeLight, light.Name)
	assert.Equal(t, "github", light.ChromaStyle)
}

func TestNewTheme_Auto(t *testing.T) {
	theme := NewTheme("something-else")
	assert.Contains(t, []string{ThemeDark, ThemeLight}, theme.Name)
	assert.Equal(t, theme.IsDark, theme.Name == ThemeDark)
}

func TestRenderStatus(t *testing.T) {
	assert.Contains(t, RenderStatus(true, "reachable"), "[OK] reachable")
	assert.Contains(t, RenderStatus(false, "down"), "[X] down")
	assert.Contains(t, RenderWarning("careful"), "[!] careful")
}
