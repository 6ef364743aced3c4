package main

import (
	"os"
	"strings"

	"scenelinks/internal/cli"
)

func isItemID(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "item-") && len(s) > len("item-")
}

// rewriteItemShortcut turns `scenelinks <item-id>` into
// `scenelinks items show <item-id>`. Cobra treats the first positional as a
// subcommand, so argv is rewritten before parsing.
func rewriteItemShortcut(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	// Unknown flags are skipped without their value so an item id is never consumed.
	valueFlags := map[string]bool{
		"--dir":       true,
		"--room":      true,
		"--player":    true,
		"--format":    true,
		"--log-file":  true,
		"--log-level": true,
	}

	insert := func(i int) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, "items", "show")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		switch {
		case a == "":
			continue
		case a == "--":
			if i+1 < len(argv) && isItemID(argv[i+1]) {
				return insert(i + 1)
			}
			return argv
		case strings.HasPrefix(a, "-"):
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		case isItemID(a):
			return insert(i)
		default:
			return argv
		}
	}
	return argv
}

func main() {
	os.Args = rewriteItemShortcut(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
