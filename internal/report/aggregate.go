// Package report turns a period's habits and checks into a calendar grid.
// It performs no I/O; exporters and handlers render the result.
package report

import (
	"github.com/danek0100/External-Observer/internal/model"
	"github.com/gofrs/uuid/v5"
)

// Glyphs rendered for a day with a check.
const (
	GlyphDone   = "✓"
	GlyphMissed = "✗"
)

// HeaderDateLayout formats day columns in rendered tables.
const HeaderDateLayout = "02.01.2006"

// RowKind tells a habit row from an auxiliary comment row.
type RowKind int

const (
	HabitRow RowKind = iota
	CommentRow
)

// Row is one line of the rendered period table.
type Row struct {
	Kind    RowKind
	HabitID uuid.UUID
	// Label is the habit name for a HabitRow and "Comment: <text>" for a CommentRow.
	Label string
	// Cells holds one glyph (or "") per day of the period. Nil for comment rows.
	Cells []string
	// Day is the day the comment was left on. Zero for habit rows.
	Day model.Day
}

// Grid is the date -> habit -> check index for one period.
type Grid struct {
	From   model.Day
	To     model.Day
	Habits []model.Habit

	days  []model.Day
	cells map[model.Day]map[uuid.UUID]model.HabitCheck
}

// Aggregate indexes checks by day and habit. Checks outside [from, to] are
// ignored; of two checks for the same (day, habit) the later in the list wins.
// habits keep the order they are given in.
func Aggregate(habits []model.Habit, checks []model.HabitCheck, from, to model.Day) *Grid {
	g := &Grid{
		From:   from,
		To:     to,
		Habits: habits,
		cells:  make(map[model.Day]map[uuid.UUID]model.HabitCheck),
	}
	for d := from; !d.After(to); d = d.AddDays(1) {
		g.days = append(g.days, d)
	}
	for _, c := range checks {
		if c.Day.Before(from) || c.Day.After(to) {
			continue
		}
		byHabit, ok := g.cells[c.Day]
		if !ok {
			byHabit = make(map[uuid.UUID]model.HabitCheck)
			g.cells[c.Day] = byHabit
		}
		byHabit[c.HabitID] = c
	}
	return g
}

// Days returns every day of the period in ascending order, inclusive.
func (g *Grid) Days() []model.Day { return g.days }

// Check returns the check of habitID on day, if any.
func (g *Grid) Check(day model.Day, habitID uuid.UUID) (model.HabitCheck, bool) {
	c, ok := g.cells[day][habitID]
	return c, ok
}

// Header returns the column titles: the habit column followed by one per day.
func (g *Grid) Header(first string) []string {
	out := make([]string, 0, len(g.days)+1)
	out = append(out, first)
	for _, d := range g.days {
		out = append(out, d.Format(HeaderDateLayout))
	}
	return out
}

// Rows returns, for every habit, its data row followed by one comment row per
// commented check in day order.
func (g *Grid) Rows() []Row {
	var rows []Row
	for _, h := range g.Habits {
		data := Row{Kind: HabitRow, HabitID: h.ID, Label: h.Name, Cells: make([]string, len(g.days))}
		var comments []Row
		for i, d := range g.days {
			c, ok := g.Check(d, h.ID)
			if !ok {
				continue
			}
			data.Cells[i] = Glyph(c.Completed)
			if c.Comment != "" {
				comments = append(comments, Row{Kind: CommentRow, HabitID: h.ID, Label: "Comment: " + c.Comment, Day: d})
			}
		}
		rows = append(rows, data)
		rows = append(rows, comments...)
	}
	return rows
}

// Glyph renders a completion flag.
func Glyph(completed bool) string {
	if completed {
		return GlyphDone
	}
	return GlyphMissed
}
