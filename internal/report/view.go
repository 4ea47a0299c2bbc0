package report

import (
	"github.com/danek0100/External-Observer/internal/model"
	"github.com/gofrs/uuid/v5"
)

// View is the JSON shape of a Grid.
type View struct {
	From   model.Day   `json:"startDate"`
	To     model.Day   `json:"endDate"`
	Days   []model.Day `json:"days"`
	Habits []HabitView `json:"habits"`
}

// HabitView is one habit with its per-day cells.
type HabitView struct {
	ID    uuid.UUID  `json:"id"`
	Name  string     `json:"name"`
	Order int        `json:"order"`
	Cells []CellView `json:"cells"`
}

// CellView is a single day of a habit. Check is nil when nothing was recorded.
type CellView struct {
	Day   model.Day         `json:"date"`
	Check *model.HabitCheck `json:"check,omitempty"`
}

// View flattens the grid into the JSON representation.
func (g *Grid) View() View {
	v := View{From: g.From, To: g.To, Days: g.days, Habits: make([]HabitView, 0, len(g.Habits))}
	if v.Days == nil {
		v.Days = []model.Day{}
	}
	for _, h := range g.Habits {
		hv := HabitView{ID: h.ID, Name: h.Name, Order: h.Order, Cells: make([]CellView, 0, len(g.days))}
		for _, d := range g.days {
			cell := CellView{Day: d}
			if c, ok := g.Check(d, h.ID); ok {
				cell.Check = &c
			}
			hv.Cells = append(hv.Cells, cell)
		}
		v.Habits = append(v.Habits, hv)
	}
	return v
}
