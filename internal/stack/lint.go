package stack

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"
)

// LintResult groups cfn-lint findings by level. Warnings do not fail a template.
type LintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// LintTemplate writes the template to a scratch file and runs cfn-lint over it.
func LintTemplate(t *Template) (*LintResult, error) {
	body, err := ToYAML(t)
	if err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp("", "stack-lint-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "template.yaml")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return nil, fmt.Errorf("write template: %w", err)
	}
	return LintFile(path)
}

// LintFile runs cfn-lint on a rendered template file.
func LintFile(path string) (*LintResult, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}

	matches, err := lint.New(lint.Options{}).LintFile(path)
	if err != nil {
		return nil, fmt.Errorf("cfn-lint %s: %w", path, err)
	}
	return classify(matches), nil
}

func classify(matches []lint.Match) *LintResult {
	res := &LintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}
	for _, m := range matches {
		line := formatMatch(m)
		switch m.Level {
		case "Error":
			res.Errors = append(res.Errors, line)
		case "Warning":
			res.Warnings = append(res.Warnings, line)
		default:
			res.Informational = append(res.Informational, line)
		}
	}
	res.Passed = len(res.Errors) == 0
	return res
}

func formatMatch(m lint.Match) string {
	if len(m.Location.Path) == 0 {
		return fmt.Sprintf("%s: %s", m.Rule.ID, m.Message)
	}
	parts := make([]string, len(m.Location.Path))
	for i, p := range m.Location.Path {
		parts[i] = fmt.Sprintf("%v", p)
	}
	return fmt.Sprintf("%s: %s (at %s)", m.Rule.ID, m.Message, strings.Join(parts, "/"))
}
