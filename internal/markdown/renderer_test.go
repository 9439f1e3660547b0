package markdown

import (
	"strings"
	"testing"
	"time"

	"map-assistant/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermRendererKeepsText(t *testing.T) {
	r, err := NewTermRenderer("notty", 80)
	require.NoError(t, err)

	out, err := r.Render("### Tìm thấy 1 địa điểm:\n\n**1. Cafe X**\n\n📍 **Địa chỉ:** 123 St\n\n---\n")
	require.NoError(t, err)

	assert.Contains(t, out, "Tìm thấy 1 địa điểm")
	assert.Contains(t, out, "Cafe X")
	assert.Contains(t, out, "123 St")
}

func TestNewTermRendererUnknownStyle(t *testing.T) {
	_, err := NewTermRenderer("no-such-style", 80)
	assert.Error(t, err)
}

func TestFormatTurn(t *testing.T) {
	created := time.Date(2026, 10, 16, 14, 5, 0, 0, time.UTC)

	out := FormatTurn(PlainRenderer{}, model.Turn{
		Role:      model.RoleAssistant,
		Content:   "Xin chào",
		Intent:    "search_places",
		CreatedAt: created,
	})
	assert.Equal(t, "🗺️ Assistant  [🎯 search_places]  14:05\nXin chào\n", out)

	out = FormatTurn(PlainRenderer{}, model.Turn{
		Role:      model.RoleUser,
		Content:   "cafe",
		Intent:    "ignored",
		CreatedAt: created,
	})
	assert.True(t, strings.HasPrefix(out, "🧑 You  14:05\n"))
	assert.NotContains(t, out, "🎯")
}
