package publish

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"scenelinks/internal/linkview"
)

type RenderOptions struct {
	Room string
	// Generated is stamped into the footer; zero omits it.
	Generated time.Time
}

// RenderLinksMarkdown renders links as a handout page. Callers pass the
// links a viewer may see; nothing is filtered here.
func RenderLinksMarkdown(links []linkview.LinkItem, opt RenderOptions) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	title := "Scene links"
	if room := strings.TrimSpace(opt.Room); room != "" {
		title += ": " + room
	}
	writeLn("# " + title)
	writeLn("")

	if len(links) == 0 {
		writeLn("_No links on the scene._")
	} else {
		var engaged, rest []linkview.LinkItem
		for _, l := range links {
			if l.Active {
				engaged = append(engaged, l)
			} else {
				rest = append(rest, l)
			}
		}
		if len(engaged) > 0 {
			writeLn("## Engaged")
			writeLn("")
			for _, l := range engaged {
				writeLn(linkLine(l))
			}
			writeLn("")
		}
		if len(rest) > 0 {
			if len(engaged) > 0 {
				writeLn("## Other links")
				writeLn("")
			}
			for _, l := range rest {
				writeLn(linkLine(l))
			}
		}
	}

	if !opt.Generated.IsZero() {
		writeLn("")
		writeLn("---")
		writeLn("")
		writeLn(fmt.Sprintf("_Generated %s_", opt.Generated.UTC().Format(time.RFC3339)))
	}
	return buf.String()
}

func linkLine(l linkview.LinkItem) string {
	name := strings.TrimSpace(l.Name)
	if name == "" {
		name = l.ID
	}
	line := "- [" + escapeLabel(name) + "](<" + l.URL + ">)"
	if !l.Visible {
		line += " (hidden)"
	}
	return line
}

func escapeLabel(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
