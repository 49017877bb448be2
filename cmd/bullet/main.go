package main

import (
	"os"
	"strings"

	"bullet-cli/internal/cli"
)

func isDocumentID(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "doc-") && len(s) > len("doc-")
}

// rewriteDirectDocumentArgs turns `bullet <doc-id>` into `bullet edit <doc-id>`.
// Cobra treats the first positional token as a subcommand, so argv is rewritten
// before parsing. Persistent flags may come first.
func rewriteDirectDocumentArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--dir":       true,
		"--format":    true,
		"--log-level": true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	insertEdit := func(at int) []string {
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:at]...)
		out = append(out, "edit")
		return append(out, argv[at:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isDocumentID(argv[i+1]) {
				return insertEdit(i + 1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}
		if isDocumentID(a) {
			return insertEdit(i)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteDirectDocumentArgs(os.Args)

	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
