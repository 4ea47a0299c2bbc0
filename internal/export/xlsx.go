// Package export renders habit periods as spreadsheets and notes as zip archives.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/danek0100/External-Observer/internal/report"
)

const (
	habitSheet  = "Habits"
	habitHeader = "Habit"
)

// HabitsXLSX writes the grid as a workbook: one header row of dates, then every
// row of g.Rows(). Comment rows are merged across the day columns.
func HabitsXLSX(w io.Writer, g *report.Grid) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", habitSheet); err != nil {
		return err
	}
	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	header := g.Header(habitHeader)
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := writeRow(f, 1, toAny(header)); err != nil {
		return err
	}
	if err := f.SetCellStyle(habitSheet, "A1", lastCol+"1", styles.header); err != nil {
		return err
	}

	for i, row := range g.Rows() {
		r := i + 2
		first, _ := excelize.CoordinatesToCellName(1, r)
		last := fmt.Sprintf("%s%d", lastCol, r)
		switch row.Kind {
		case report.HabitRow:
			if err := writeRow(f, r, append([]any{row.Label}, toAny(row.Cells)...)); err != nil {
				return err
			}
			if err := f.SetCellStyle(habitSheet, first, first, styles.header); err != nil {
				return err
			}
			if len(row.Cells) > 0 {
				second, _ := excelize.CoordinatesToCellName(2, r)
				if err := f.SetCellStyle(habitSheet, second, last, styles.check); err != nil {
					return err
				}
			}
		case report.CommentRow:
			label := fmt.Sprintf("%s (%s)", row.Label, row.Day.Format(report.HeaderDateLayout))
			if err := f.SetCellValue(habitSheet, first, label); err != nil {
				return err
			}
			if first != last {
				if err := f.MergeCell(habitSheet, first, last); err != nil {
					return err
				}
			}
			if err := f.SetCellStyle(habitSheet, first, last, styles.comment); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(habitSheet, "A", "A", 28); err != nil {
		return err
	}
	if len(header) > 1 {
		if err := f.SetColWidth(habitSheet, "B", lastCol, 12); err != nil {
			return err
		}
	}
	_, err = f.WriteTo(w)
	return err
}

type sheetStyles struct{ header, check, comment int }

func newStyles(f *excelize.File) (sheetStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	var s sheetStyles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Border:    border,
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"D9D9D9"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return s, err
	}
	if s.check, err = f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return s, err
	}
	s.comment, err = f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "left", WrapText: true},
	})
	return s, err
}

func writeRow(f *excelize.File, r int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, r)
	if err != nil {
		return err
	}
	return f.SetSheetRow(habitSheet, cell, &values)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
