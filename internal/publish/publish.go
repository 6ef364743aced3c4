// Package publish writes link handouts for sharing outside the panel.
package publish

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"scenelinks/internal/linkview"
)

var ErrHandoutExists = errors.New("handout already exists")

type WriteOptions struct {
	RenderOptions
	Overwrite bool
}

type WriteResult struct {
	Written []string `json:"written"`
	Links   int      `json:"links"`
}

// WriteHandout renders links into <toDir>/links.md.
func WriteHandout(links []linkview.LinkItem, toDir string, opt WriteOptions) (WriteResult, error) {
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)
	if err := os.MkdirAll(toDir, 0o755); err != nil {
		return WriteResult{}, err
	}

	md := RenderLinksMarkdown(links, opt.RenderOptions)

	outPath := filepath.Join(toDir, "links.md")
	if err := writeFile(outPath, []byte(md), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{outPath}, Links: len(links)}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w (use --overwrite): %s", ErrHandoutExists, path)
	}
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
