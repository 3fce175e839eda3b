package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mind-engage/paperdesk/internal/config"
	"github.com/mind-engage/paperdesk/internal/paper"
)

// errBlocking makes the process exit 1 after the report is printed.
var errBlocking = errors.New("paper has blocking compliance errors")

type rootOpts struct {
	tables  string
	noColor bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}
	root := &cobra.Command{
		Use:           "papercheck",
		Short:         "Check past-paper JSON for answer-structure compliance",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.tables, "tables", os.Getenv("TABLES_PATH"), "policy tables YAML overriding the built-in defaults")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable coloured output")

	root.AddCommand(newCheckCmd(opts), newResolveCmd(opts))
	return root
}

func (o *rootOpts) loadTables() (config.Tables, error) {
	return config.LoadTables(o.tables)
}

func readDocument(path string) (paper.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return paper.Document{}, err
	}
	doc, err := paper.Ingest(raw)
	if err != nil {
		return paper.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
