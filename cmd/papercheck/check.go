package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mind-engage/paperdesk/internal/compliance"
	"github.com/mind-engage/paperdesk/internal/paper"
)

type checkOpts struct {
	rules        []string
	hints        bool
	explanations bool
	subjectRules []string
	export       string
	asJSON       bool
	category     string
	failedOnly   bool
}

func newCheckCmd(root *rootOpts) *cobra.Command {
	o := &checkOpts{}
	cmd := &cobra.Command{
		Use:   "check <paper.json>",
		Short: "Run the compliance rules over every question",
		Long: `Evaluates every answerable question of the paper against the compliance
rules and prints per-question scores. Exits with status 1 when any required
rule fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, root, o, args[0])
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&o.rules, "rules", nil, "only evaluate these rule ids")
	f.BoolVar(&o.hints, "hints-required", false, "treat missing hints as errors")
	f.BoolVar(&o.explanations, "explanations-required", false, "treat missing explanations as errors")
	f.StringSliceVar(&o.subjectRules, "subject-rule", nil, "enable subject-specific rules as required (e.g. units)")
	f.StringVar(&o.export, "export", "", "write the {summary, details, timestamp} report to this file")
	f.BoolVar(&o.asJSON, "json", false, "print the report as JSON")
	f.StringVar(&o.category, "category", "", "only show questions failing a rule in this category")
	f.BoolVar(&o.failedOnly, "failed", false, "only show questions scoring below 100")
	return cmd
}

func runCheck(cmd *cobra.Command, root *rootOpts, o *checkOpts, path string) error {
	doc, err := readDocument(path)
	if err != nil {
		return err
	}
	tables, err := root.loadTables()
	if err != nil {
		return err
	}
	settings := compliance.Settings{
		HintsRequired:        o.hints,
		ExplanationsRequired: o.explanations,
		SubjectRules:         map[string]bool{},
	}
	for _, r := range o.subjectRules {
		settings.SubjectRules[strings.ToLower(strings.TrimSpace(r))] = true
	}
	engine := compliance.NewEngine(compliance.DefaultRules(settings, tables.Compliance()))
	rep := engine.Evaluate(paper.Flatten(doc.Questions), o.rules...)
	export := compliance.NewExport(rep, time.Now())

	if o.export != "" {
		if err := writeExport(o.export, export); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if o.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(export); err != nil {
			return err
		}
	} else {
		opts := compliance.FilterOpts{Category: compliance.Category(o.category)}
		if o.failedOnly {
			opts.Status = "failed"
		}
		printReport(out, compliance.Filter(rep, opts), export.Summary)
	}

	if rep.Blocking() > 0 {
		return errBlocking
	}
	return nil
}

func writeExport(path string, e compliance.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := e.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write export: %w", err)
	}
	return f.Close()
}

var (
	green   = color.New(color.FgGreen)
	yellow  = color.New(color.FgYellow)
	red     = color.New(color.FgRed)
	magenta = color.New(color.FgMagenta)
	bold    = color.New(color.Bold)
)

func scoreColor(score int) *color.Color {
	switch compliance.StatusOf(score) {
	case compliance.StatusCompliant:
		return green
	case compliance.StatusPartial:
		return yellow
	default:
		return red
	}
}

func printReport(w io.Writer, rep compliance.Report, sum compliance.Summary) {
	for _, num := range rep.Numbers() {
		res := rep[num]
		bold.Fprintf(w, "Question %s", num)
		fmt.Fprint(w, "  ")
		scoreColor(res.Score).Fprintf(w, "%d%%", res.Score)
		fmt.Fprintf(w, " (%d/%d rules)\n", res.PassedRules, res.TotalRules)
		for _, f := range res.FailedRules {
			if f.Severity == compliance.SeverityError {
				red.Fprint(w, "  ERROR ")
			} else {
				yellow.Fprint(w, "  WARN  ")
			}
			fmt.Fprintf(w, "%s: %s\n", f.RuleID, f.Message)
		}
		for _, wn := range res.Warnings {
			magenta.Fprint(w, "  SKIP  ")
			fmt.Fprintf(w, "%s: %s\n", wn.RuleID, wn.Message)
		}
	}
	fmt.Fprintln(w)
	bold.Fprintln(w, "Summary")
	fmt.Fprintf(w, "  questions: %d  compliant: %d  partial: %d  non-compliant: %d\n",
		sum.TotalQuestions, sum.FullyCompliant, sum.PartiallyCompliant, sum.NonCompliant)
	fmt.Fprint(w, "  average score: ")
	scoreColor(sum.AverageScore).Fprintf(w, "%d%%\n", sum.AverageScore)
	fmt.Fprintf(w, "  errors: %d  warnings: %d\n", sum.Errors, sum.Warnings)
}
