package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mind-engage/paperdesk/internal/catalog"
	"github.com/mind-engage/paperdesk/internal/paper"
	"github.com/mind-engage/paperdesk/internal/resolve"
)

func newResolveCmd(root *rootOpts) *cobra.Command {
	var (
		catalogPath string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "resolve <paper.json>",
		Short: "Extract the paper's metadata and match it against a catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			tables, err := root.loadTables()
			if err != nil {
				return err
			}
			x, err := tables.Extractor()
			if err != nil {
				return err
			}
			entries, err := catalog.LoadFile(catalogPath)
			if err != nil {
				return err
			}
			md := x.Extract(doc.Header)
			m, err := tables.Resolver().MatchFrom(context.Background(), catalog.NewMemoryStore(entries...), md)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"metadata": md, "match": m})
			}
			printMatch(cmd.OutOrStdout(), md, m)
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "JSON array of catalog entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print metadata and match as JSON")
	_ = cmd.MarkFlagRequired("catalog")
	return cmd
}

func printMatch(w io.Writer, md paper.Metadata, m resolve.MatchResult) {
	bold.Fprintln(w, md.Title)
	fmt.Fprintf(w, "  board: %s  qualification: %s  subject: %s (%s)\n", md.ExamBoard, md.Qualification, md.Subject, md.SubjectCode)
	if !m.Matched() {
		red.Fprintln(w, "  no match")
	} else {
		c := green
		if m.Confidence < 0.9 {
			c = yellow
		}
		fmt.Fprintf(w, "  data structure: %s  ", *m.DataStructureID)
		c.Fprintf(w, "%.0f%%\n", m.Confidence*100)
		for _, on := range m.MatchedOn {
			fmt.Fprintf(w, "    matched on %s\n", on)
		}
	}
	for _, s := range m.Suggestions {
		yellow.Fprintf(w, "  hint: %s\n", s)
	}
}
