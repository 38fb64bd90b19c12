package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"rostercal/internal/classify"
	"rostercal/internal/diagram"
	"rostercal/internal/ics"
	"rostercal/internal/model"
	"rostercal/internal/normalize"
	"rostercal/internal/sheet"
	"rostercal/internal/workset"
)

var normalizeOpts struct {
	person     string
	timezone   string
	categories bool
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize FILE",
	Short: "Print the detected mapping and normalized records of a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := time.LoadLocation(normalizeOpts.timezone)
		if err != nil {
			return errors.Wrap(err, "timezone")
		}
		tbl, err := readSheet(args[0], loc)
		if err != nil {
			return err
		}
		out := normalizeTable(tbl, normalizeOpts.person, loc)
		out.File = filepath.Base(args[0])
		if normalizeOpts.categories {
			return writeIndentedJSON(cmd.OutOrStdout(), classify.Categorize(generalOnly(out.Records)))
		}
		return writeIndentedJSON(cmd.OutOrStdout(), out)
	},
}

var (
	diagramFormat string
	sheetName     string
)

var diagramCmd = &cobra.Command{
	Use:   "diagram FILE",
	Short: "Build the org chart of a recall roster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tbl, err := readSheet(args[0], time.UTC)
		if err != nil {
			return err
		}
		g := diagram.Build(diagram.FromRows(tbl.Rows))
		switch diagramFormat {
		case "mermaid":
			_, err := io.WriteString(cmd.OutOrStdout(), g.Mermaid())
			return err
		case "json":
			return writeIndentedJSON(cmd.OutOrStdout(), g)
		default:
			return errors.Errorf("unknown format %q", diagramFormat)
		}
	},
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeOpts.person, "person", "", "Only records for this person (unnamed records always included)")
	normalizeCmd.Flags().StringVar(&normalizeOpts.timezone, "timezone", "UTC", "IANA zone for combined date and time")
	normalizeCmd.Flags().BoolVar(&normalizeOpts.categories, "categories", false, "Print category buckets instead of records")

	diagramCmd.Flags().StringVarP(&diagramFormat, "format", "f", "json", "Output format (json, mermaid)")

	for _, c := range []*cobra.Command{normalizeCmd, diagramCmd} {
		c.Flags().StringVar(&sheetName, "sheet", "", "Workbook sheet to read (default: first sheet)")
	}
}

type normalizeOutput struct {
	File    string                   `json:"file"`
	Columns []string                 `json:"columns"`
	Mapping model.ColumnMapping      `json:"mapping"`
	Records []model.ClassifiedRecord `json:"records"`
}

func normalizeTable(tbl *sheet.Table, person string, loc *time.Location) normalizeOutput {
	recs, m := normalize.Rows(tbl.Rows)
	classified := workset.FilterByPerson(classify.ClassifyAll(recs, loc), person)
	workset.Sort(classified)
	return normalizeOutput{Columns: tbl.Columns, Mapping: m, Records: classified}
}

func generalOnly(recs []model.ClassifiedRecord) []model.ClassifiedRecord {
	out := make([]model.ClassifiedRecord, 0, len(recs))
	for _, r := range recs {
		if !r.IsEvent() {
			out = append(out, r)
		}
	}
	return out
}

func readSheet(path string, loc *time.Location) (*sheet.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open input")
	}
	defer f.Close()
	return sheet.Read(filepath.Base(path), f,
		sheet.WithICSWindow(ics.DefaultWindow(loc)),
		sheet.WithSheet(sheetName),
	)
}

func writeIndentedJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
