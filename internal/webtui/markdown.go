package webtui

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"scenelinks/internal/docs"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Raw HTML passthrough stays disabled (no html.WithUnsafe).
var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

func renderMarkdownHTML(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return template.HTML("")
	}
	var b bytes.Buffer
	if err := markdownRenderer.Convert([]byte(src), &b); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	return template.HTML(b.String())
}

type docsVM struct {
	Room   string
	Topic  string
	Topics []string
	Body   template.HTML
}

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(r.PathValue("topic"))
	if topic == "" {
		topic = "panel"
	}
	body, ok := docs.Get(topic)
	if !ok {
		http.Error(w, "unknown topic: "+topic, http.StatusNotFound)
		return
	}
	s.render(w, "docs.html", docsVM{
		Room:   s.roomLabel(),
		Topic:  topic,
		Topics: docs.Topics(),
		Body:   renderMarkdownHTML(body),
	})
}
