package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/typhoon/typhoon-go/ast"
	"github.com/typhoon/typhoon-go/codegen"
	"github.com/typhoon/typhoon-go/compiler"
	"github.com/typhoon/typhoon-go/lint"
)

func newCheckCommand() *Command {
	checkCmd := &Command{
		Name:        "check",
		Description: "Parse, compile, and lint templates (.tp files or annotated Go files)",
		FlagSet:     flag.NewFlagSet("check", flag.ExitOnError),
	}

	format := checkCmd.FlagSet.String("format", "text", "Output format: text or json")
	failOnWarn := checkCmd.FlagSet.Bool("fail-on-warn", false, "Return non-zero exit code when warnings are present")
	colorMode := checkCmd.FlagSet.String("color", "auto", "Highlight issue codes: auto, always, never")
	fallback := checkCmd.FlagSet.String("fallback", "ignore", "Policy for directives that fall back to attributes: ignore, warn, error")

	checkCmd.Run = func() error {
		files, err := expandInputs(checkCmd.FlagSet.Args(), ".go", ".tp")
		if err != nil {
			return err
		}
		if len(files) < 1 {
			return fmt.Errorf("no input files specified")
		}

		mode, err := lint.ParseFallbackMode(*fallback)
		if err != nil {
			return err
		}

		issues, hadWarn, hadError := runCheck(files, lint.LintOptions{FallbackMode: mode})

		switch strings.ToLower(*format) {
		case "json":
			encoded, err := json.MarshalIndent(issues, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding issues: %w", err)
			}
			fmt.Println(string(encoded))
		case "text":
			color, err := useColor(*colorMode, os.Stdout)
			if err != nil {
				return err
			}
			if len(issues) > 0 {
				fmt.Println(formatIssues(issues, color))
			}
		default:
			return fmt.Errorf("unsupported format: %s", *format)
		}

		if hadError || (*failOnWarn && hadWarn) {
			return fmt.Errorf("check failed")
		}

		return nil
	}

	return checkCmd
}

func runCheck(files []string, options lint.LintOptions) ([]lint.Issue, bool, bool) {
	issues := make([]lint.Issue, 0)
	hadWarn := false
	hadError := false

	for _, filename := range files {
		if codegen.IsGenerated(filename, "") {
			continue
		}
		logf("Checking %s...", filename)

		templates, err := loadTemplates(filename)
		if err != nil {
			hadError = true
			issues = append(issues, issueFromError(filename, err))
			continue
		}

		for _, t := range templates {
			fileIssues := checkTemplate(t, options)
			for _, issue := range fileIssues {
				switch issue.Severity {
				case lint.SeverityWarning:
					hadWarn = true
				case lint.SeverityError:
					hadError = true
				}
			}
			issues = append(issues, fileIssues...)
		}
	}

	return issues, hadWarn, hadError
}

// checkTemplate validates expressions with the backend the template is
// written for: Go for annotated constants, expr-lang for .tp files.
func checkTemplate(t sourceTemplate, options lint.LintOptions) []lint.Issue {
	tmpl, err := ast.Parse(t.File, t.Source)
	if err != nil {
		issue := issueFromError(t.File, err)
		issue.Pos = shiftPosition(issue.Pos, t.Line)
		return []lint.Issue{issue}
	}

	var compileErr error
	if t.Params != "" || strings.HasSuffix(t.File, ".go") {
		_, compileErr = codegen.Lower(codegen.Template{
			Name: t.Name, Params: t.Params, Source: t.Source, Filename: t.File, Line: t.Line,
		}, codegen.Options{})
	} else {
		_, compileErr = compiler.New(compiler.WithFilename(t.File)).CompileTemplate(tmpl)
	}
	if compileErr != nil {
		issue := issueFromError(t.File, compileErr)
		if !strings.HasSuffix(t.File, ".go") {
			issue.Pos = shiftPosition(issue.Pos, t.Line)
		}
		return []lint.Issue{issue}
	}

	issues := lint.LintTemplateWithOptions(tmpl, t.File, options)
	for i := range issues {
		issues[i].Pos = shiftPosition(issues[i].Pos, t.Line)
	}
	return issues
}
