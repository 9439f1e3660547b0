// Package markdown displays turn content in a terminal. Rendering only
// styles the text produced by the normalizer, it never rewrites it.
package markdown

import (
	"fmt"
	"strings"

	"map-assistant/internal/model"

	"github.com/charmbracelet/glamour"
)

type Renderer interface {
	Render(content string) (string, error)
}

// TermRenderer renders GitHub-flavored markdown with glamour.
type TermRenderer struct {
	r *glamour.TermRenderer
}

// NewTermRenderer builds a renderer for style ("auto" picks dark or light
// from the terminal background). wordWrap 0 disables wrapping.
func NewTermRenderer(style string, wordWrap int) (*TermRenderer, error) {
	opts := []glamour.TermRendererOption{
		glamour.WithWordWrap(wordWrap),
		glamour.WithEmoji(),
	}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return &TermRenderer{r: r}, nil
}

func (t *TermRenderer) Render(content string) (string, error) {
	return t.r.Render(content)
}

// PlainRenderer returns content untouched.
type PlainRenderer struct{}

func (PlainRenderer) Render(content string) (string, error) {
	return content, nil
}

// FormatTurn lays out one turn: a header with the author, the intent badge
// for assistant turns and the HH:MM timestamp, then the rendered content.
// Content that fails to render is shown raw.
func FormatTurn(r Renderer, turn model.Turn) string {
	var b strings.Builder

	author := "🗺️ Assistant"
	if turn.Role == model.RoleUser {
		author = "🧑 You"
	}
	b.WriteString(author)
	if turn.Role == model.RoleAssistant && turn.Intent != "" {
		fmt.Fprintf(&b, "  [🎯 %s]", turn.Intent)
	}
	fmt.Fprintf(&b, "  %s\n", turn.CreatedAt.Format("15:04"))

	body, err := r.Render(turn.Content)
	if err != nil {
		body = turn.Content
	}
	b.WriteString(strings.TrimRight(body, "\n"))
	b.WriteString("\n")
	return b.String()
}
