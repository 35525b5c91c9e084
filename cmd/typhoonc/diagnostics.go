package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/mattn/go-isatty"

	"github.com/typhoon/typhoon-go"
	"github.com/typhoon/typhoon-go/codegen"
	"github.com/typhoon/typhoon-go/lint"
)

var positionPattern = regexp.MustCompile(`:(\d+):(\d+)`)

// sourceTemplate is one template found in an input file: either a whole .tp
// file or an annotated constant in a Go file.
type sourceTemplate struct {
	File   string
	Name   string
	Params string
	Source string
	// Line is the file line the template starts on
	Line int
}

func loadTemplates(path string) ([]sourceTemplate, error) {
	if strings.EqualFold(filepath.Ext(path), ".go") {
		f, err := codegen.ScanFile(path)
		if err != nil {
			return nil, err
		}
		out := make([]sourceTemplate, 0, len(f.Templates))
		for _, t := range f.Templates {
			out = append(out, sourceTemplate{File: path, Name: t.Name, Params: t.Params, Source: t.Source, Line: t.Line})
		}
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []sourceTemplate{{File: path, Name: name, Source: string(data), Line: 1}}, nil
}

func selectTemplate(templates []sourceTemplate, name string) (sourceTemplate, error) {
	if len(templates) == 0 {
		return sourceTemplate{}, fmt.Errorf("no templates found")
	}
	if name == "" {
		if len(templates) > 1 {
			return sourceTemplate{}, fmt.Errorf("%d templates found; choose one with -name", len(templates))
		}
		return templates[0], nil
	}
	for _, t := range templates {
		if t.Name == name {
			return t, nil
		}
	}
	return sourceTemplate{}, fmt.Errorf("template %s not found", name)
}

func shiftPosition(pos lexer.Position, line int) lexer.Position {
	if line > 1 && pos.Line > 0 {
		pos.Line += line - 1
	}
	return pos
}

func splitCommaList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func issueFromError(file string, err error) lint.Issue {
	return lint.Issue{
		File:     file,
		Pos:      positionFromError(err),
		Severity: lint.SeverityError,
		Code:     "compile",
		Message:  err.Error(),
	}
}

func positionFromError(err error) lexer.Position {
	if err == nil {
		return lexer.Position{}
	}

	var cerr *typhoon.CompileError
	if errors.As(err, &cerr) && cerr.Pos.Line > 0 {
		return cerr.Pos
	}

	matches := positionPattern.FindAllStringSubmatch(err.Error(), -1)
	if len(matches) == 0 {
		return lexer.Position{}
	}

	last := matches[len(matches)-1]
	line, _ := strconv.Atoi(last[1])
	col, _ := strconv.Atoi(last[2])

	return lexer.Position{Line: line, Column: col}
}

const (
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

// isTerminal reports whether f is a terminal, including Cygwin ptys.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// useColor resolves a -color value of auto, always or never.
func useColor(mode string, f *os.File) (bool, error) {
	switch strings.ToLower(mode) {
	case "", "auto":
		return isTerminal(f), nil
	case "always":
		return true, nil
	case "never":
		return false, nil
	default:
		return false, fmt.Errorf("unsupported color mode: %s", mode)
	}
}

func formatIssuesText(issues []lint.Issue) string {
	return formatIssues(issues, false)
}

// formatIssues renders one issue per line. With color on, the issue code is
// highlighted by severity.
func formatIssues(issues []lint.Issue, color bool) string {
	sorted := append([]lint.Issue{}, issues...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].File != sorted[j].File {
			return sorted[i].File < sorted[j].File
		}
		if sorted[i].Pos.Line != sorted[j].Pos.Line {
			return sorted[i].Pos.Line < sorted[j].Pos.Line
		}
		return sorted[i].Pos.Column < sorted[j].Pos.Column
	})

	lines := make([]string, 0, len(sorted))
	for _, issue := range sorted {
		line := issue.Pos.Line
		col := issue.Pos.Column
		if line <= 0 {
			line = 1
		}
		if col <= 0 {
			col = 1
		}
		code := "[" + issue.Code + "]"
		if color {
			shade := ansiYellow
			if issue.Severity == lint.SeverityError {
				shade = ansiRed
			}
			code = shade + code + ansiReset
		}
		lines = append(lines, fmt.Sprintf("%s:%d:%d %s %s", issue.File, line, col, code, issue.Message))
	}

	return strings.Join(lines, "\n")
}

func outputBytes(data []byte, output string) error {
	if output == "" {
		fmt.Println(string(data))
		return nil
	}
	return os.WriteFile(output, data, 0644)
}

// expandInputs replaces directories with the .go and .tp files below them.
func expandInputs(paths []string, exts ...string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			for _, ext := range exts {
				if strings.HasSuffix(path, ext) {
					out = append(out, path)
					break
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
