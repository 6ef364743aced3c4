package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type mdKey struct {
	dark  bool
	width int
}

// glamour's auto style queries the terminal, which stalls inside the program
// loop; renderers are built with an explicit style and kept per width.
var mdCache struct {
	sync.Mutex
	r map[mdKey]*glamour.TermRenderer
}

func mdRenderer(k mdKey) (*glamour.TermRenderer, error) {
	mdCache.Lock()
	defer mdCache.Unlock()
	if r := mdCache.r[k]; r != nil {
		return r, nil
	}
	style := "light"
	if k.dark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle(style), glamour.WithWordWrap(k.width))
	if err != nil {
		return nil, err
	}
	if mdCache.r == nil {
		mdCache.r = map[mdKey]*glamour.TermRenderer{}
	}
	mdCache.r[k] = r
	return r, nil
}

// renderMarkdown falls back to the raw text when glamour fails.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	r, err := mdRenderer(mdKey{dark: lipgloss.HasDarkBackground(), width: max(width, 10)})
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
