package report

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/rfp-cli/internal/model"
	"github.com/sells-group/rfp-cli/internal/view"
)

// MatrixSheet is the bid matrix sheet name.
const MatrixSheet = "Bid Matrix"

// MatrixColumns are the bid matrix headers.
var MatrixColumns = []string{"Requirement", "Priority", "Complexity", "Status", "Assigned To", "Notes"}

const statusToReview = "To Review"

// MatrixItem is one line of work to evaluate for the bid.
type MatrixItem struct {
	Category    string `json:"category" yaml:"category"`
	Requirement string `json:"requirement" yaml:"requirement"`
	Priority    string `json:"priority" yaml:"priority"`
	Status      string `json:"status" yaml:"status"`
	Notes       string `json:"notes" yaml:"notes"`
}

// MatrixSection groups matrix items.
type MatrixSection struct {
	Name  string       `json:"name" yaml:"name"`
	Items []MatrixItem `json:"items" yaml:"items"`
}

// Matrix is a bid/no-bid worksheet derived from an analysis.
type Matrix struct {
	Sections []MatrixSection `json:"sections" yaml:"sections"`
}

// MatrixFile returns the download name for a session's matrix.
func MatrixFile(sessionID string) string {
	return "bid_matrix_" + sessionID + ".xlsx"
}

// BuildMatrix derives the bid matrix from doc.
func BuildMatrix(doc *model.Document) Matrix {
	m := Matrix{Sections: []MatrixSection{{
		Name: "Project Overview",
		Items: []MatrixItem{
			{
				Category:    "Budget",
				Requirement: valueOrDefault(doc.Lookup("commercials", "budget").Value),
				Priority:    "High",
				Status:      statusToReview,
				Notes:       "Compare with past successful bids in this range",
			},
			{
				Category:    "Deadline",
				Requirement: valueOrDefault(doc.Lookup("key_dates", "submission_deadline").Value),
				Priority:    "High",
				Status:      statusToReview,
				Notes:       "Assess resource availability for timeline",
			},
		},
	}}}

	m.Sections = append(m.Sections,
		fieldSection(doc, "requirements", "Technical Requirements", "Medium", "Evaluate against technical capabilities"),
		fieldSection(doc, "submission_details", "Submission", "High", "Confirm format and delivery method"),
	)
	return m
}

func fieldSection(doc *model.Document, key, name, priority, notes string) MatrixSection {
	out := MatrixSection{Name: name}
	s, _ := doc.Section(key)
	for _, nf := range s.Fields {
		if nf.Field.IsEmpty() {
			continue
		}
		out.Items = append(out.Items, MatrixItem{
			Category:    view.Label(nf.Name),
			Requirement: nf.Field.Value,
			Priority:    priority,
			Status:      statusToReview,
			Notes:       notes,
		})
	}
	return out
}

// WriteMatrix writes m as a workbook to w.
func WriteMatrix(w io.Writer, m Matrix) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(MatrixSheet)
	if err != nil {
		return eris.Wrap(err, "report: add matrix sheet")
	}

	header := sheet.AddRow()
	for _, col := range MatrixColumns {
		c := header.AddCell()
		c.SetString(col)
		c.SetStyle(boldStyle())
	}

	for _, sec := range m.Sections {
		if len(sec.Items) == 0 {
			continue
		}
		head := sheet.AddRow().AddCell()
		head.SetString(sec.Name)
		head.SetStyle(boldStyle())
		head.Merge(len(MatrixColumns)-1, 0)

		for _, it := range sec.Items {
			row := sheet.AddRow()
			row.AddCell().SetString(it.Category + ": " + it.Requirement)
			row.AddCell().SetString(it.Priority)
			row.AddCell().SetString("")
			row.AddCell().SetString(it.Status)
			row.AddCell().SetString("")
			row.AddCell().SetString(it.Notes)
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write matrix workbook")
	}
	return nil
}
