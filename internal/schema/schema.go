package schema

import (
	"fmt"
	"os"
	"strings"
)

// DefaultHeader is the exact yaml-language-server schema line required at the
// top of every app-template HelmRelease manifest.
const DefaultHeader = "# yaml-language-server: $schema=https://raw.githubusercontent.com/bjw-s-labs/helm-charts/app-template-4.5.0/charts/other/app-template/schemas/helmrelease-helm-v2.schema.json"

const headerPrefix = "# yaml-language-server:"

// IsAppTemplateRelease reports whether the content looks like a HelmRelease
// using the bjw-s app-template chart. Anything else is left alone.
func IsAppTemplateRelease(content []byte) bool {
	s := string(content)
	return strings.Contains(s, "HelmRelease") &&
		strings.Contains(s, "bjw-s") &&
		strings.Contains(s, "app-template")
}

// HasHeader reports whether the first line of content matches header exactly.
func HasHeader(content []byte, header string) bool {
	lines := strings.SplitN(string(content), "\n", 2)
	if len(lines) == 0 {
		return false
	}
	return strings.TrimSpace(lines[0]) == header
}

// Fix ensures the schema header is the first line of content. It replaces a
// stale yaml-language-server comment, or prepends the header with a blank
// separator line. It returns the fixed content and whether anything changed.
func Fix(content []byte, header string) ([]byte, bool) {
	if len(content) == 0 {
		return content, false
	}
	if !IsAppTemplateRelease(content) {
		return content, false
	}
	if HasHeader(content, header) {
		return content, false
	}

	lines := strings.Split(string(content), "\n")

	if strings.HasPrefix(strings.TrimSpace(lines[0]), headerPrefix) {
		lines[0] = header
	} else {
		head := []string{header}
		if strings.TrimSpace(lines[0]) != "" && strings.TrimSpace(lines[0]) != "---" {
			head = append(head, "")
		}
		lines = append(head, lines...)
	}

	return []byte(strings.Join(lines, "\n")), true
}

// FixFile applies Fix to a file on disk, rewriting it only when needed.
// It returns whether the file was modified.
func FixFile(path, header string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	fixed, changed := Fix(content, header)
	if !changed {
		return false, nil
	}

	if err := os.WriteFile(path, fixed, 0644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}

	return true, nil
}
