// Package report writes XLSX workbooks from an analysis document.
package report

import (
	"io"
	"math"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/rfp-cli/internal/model"
	"github.com/sells-group/rfp-cli/internal/view"
)

// Report sheet layout.
const (
	AnalysisSheet = "RFP Analysis Report"
	AnalysisFile  = "rfp_analysis_report.xlsx"

	// Columns A through F are merged for titles.
	mergeAcross = 5
	// Sections start on the fourth row.
	firstSectionRow = 3
)

// NotSpecified fills cells with no value.
const NotSpecified = "Not specified"

func boldStyle() *xlsx.Style {
	s := xlsx.NewStyle()
	s.Font.Bold = true
	s.ApplyFont = true
	return s
}

func titleStyle() *xlsx.Style {
	s := boldStyle()
	s.Font.Size = 14
	return s
}

// WriteAnalysis writes the full analysis workbook to w. Every field is
// exported regardless of display filters.
func WriteAnalysis(w io.Writer, doc *model.Document, generated time.Time) error {
	f, err := BuildAnalysis(doc, generated)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write analysis workbook")
	}
	return nil
}

// BuildAnalysis lays out the analysis workbook.
func BuildAnalysis(doc *model.Document, generated time.Time) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(AnalysisSheet)
	if err != nil {
		return nil, eris.Wrap(err, "report: add sheet")
	}

	title := sheet.AddRow().AddCell()
	title.SetString(AnalysisSheet)
	title.SetStyle(titleStyle())
	title.Merge(mergeAcross, 0)

	stamp := sheet.AddRow().AddCell()
	stamp.SetString("Generated on: " + generated.Format("2006-01-02 15:04:05"))
	stamp.Merge(mergeAcross, 0)

	for len(sheet.Rows) < firstSectionRow {
		sheet.AddRow()
	}

	for _, sec := range orderedSections(doc) {
		head := sheet.AddRow().AddCell()
		head.SetString(sec.title)
		head.SetStyle(boldStyle())
		head.Merge(mergeAcross, 0)

		for _, nf := range sec.fields {
			row := sheet.AddRow()
			row.AddCell().SetString(view.Label(nf.Name))
			row.AddCell().SetString(valueOrDefault(nf.Field.Value))
			if nf.Field.IsStructured() {
				row.AddCell().SetString(percent(nf.Field.Confidence))
				row.AddCell().SetString(interpretation(nf.Field.IsInterpreted))
			}
		}
		sheet.AddRow()
	}
	return f, nil
}

type namedSection struct {
	title  string
	fields []model.NamedField
}

// orderedSections returns known sections in display order, then the rest in
// document order.
func orderedSections(doc *model.Document) []namedSection {
	var out []namedSection
	known := make(map[string]bool, len(model.KnownSections))
	for _, def := range model.KnownSections {
		known[def.Key] = true
		s, _ := doc.Section(def.Key)
		out = append(out, namedSection{title: def.Title, fields: s.Fields})
	}
	if doc == nil {
		return out
	}
	for _, s := range doc.Sections {
		if !known[s.Key] {
			out = append(out, namedSection{title: view.Label(s.Key), fields: s.Fields})
		}
	}
	return out
}

func valueOrDefault(v string) string {
	if v == "" {
		return NotSpecified
	}
	return v
}

func percent(c float64) string {
	return strconv.Itoa(int(math.Round(c*100))) + "%"
}

func interpretation(b bool) string {
	if b {
		return "Interpreted"
	}
	return "Stated"
}
