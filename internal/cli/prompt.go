package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"scenelinks/internal/mutate"
)

// linePrompter answers URL prompts from lines of r. End of input cancels
// the remaining prompts.
type linePrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newLinePrompter(r io.Reader, w io.Writer) *linePrompter {
	return &linePrompter{in: bufio.NewScanner(r), out: w}
}

func (p *linePrompter) PromptURL(ctx context.Context, req mutate.PromptRequest) (mutate.PromptResponse, error) {
	if err := ctx.Err(); err != nil {
		return mutate.PromptResponse{}, err
	}
	label := req.ItemName
	if label == "" {
		label = req.ItemID
	}
	if req.Kind == mutate.PromptEdit {
		fmt.Fprintf(p.out, "URL for %s [%s]: ", label, req.Current)
	} else {
		fmt.Fprintf(p.out, "URL for %s: ", label)
	}
	if !p.in.Scan() {
		fmt.Fprintln(p.out)
		if err := p.in.Err(); err != nil {
			return mutate.PromptResponse{}, err
		}
		return mutate.PromptResponse{Canceled: true}, nil
	}
	return mutate.PromptResponse{URL: strings.TrimSpace(p.in.Text())}, nil
}
