package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gofrs/uuid/v5"

	"github.com/danek0100/External-Observer/internal/errs"
	"github.com/danek0100/External-Observer/internal/export"
	"github.com/danek0100/External-Observer/internal/model"
	"github.com/danek0100/External-Observer/internal/service"
)

// HabitsHandler exposes habit CRUD, daily checks and the period report.
type HabitsHandler struct {
	Service service.HabitService
}

type reorderRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

type checkRequest struct {
	HabitID   uuid.UUID `json:"habitId"`
	Date      model.Day `json:"date"`
	Completed bool      `json:"completed"`
	Comment   string    `json:"comment"`
}

func (h *HabitsHandler) List(w http.ResponseWriter, r *http.Request) {
	habits, err := h.Service.ListHabits(r.Context(), UsernameFromCtx(r.Context()))
	reply(w, r, habits, err)
}

func (h *HabitsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.HabitInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	habit, err := h.Service.CreateHabit(r.Context(), UsernameFromCtx(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, habit)
}

func (h *HabitsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in model.HabitInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	habit, err := h.Service.UpdateHabit(r.Context(), UsernameFromCtx(r.Context()), id, in)
	reply(w, r, habit, err)
}

func (h *HabitsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.DeleteHabit(r.Context(), UsernameFromCtx(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reorder accepts either {"ids": [...]} or a bare JSON array of ids.
func (h *HabitsHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var raw rawIDs
	if err := decodeJSON(w, r, &raw); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.ReorderHabits(r.Context(), UsernameFromCtx(r.Context()), raw); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HabitsHandler) ChecksForDay(w http.ResponseWriter, r *http.Request) {
	day, err := queryDay(r, "date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	checks, err := h.Service.ChecksForDay(r.Context(), UsernameFromCtx(r.Context()), day)
	reply(w, r, checks, err)
}

func (h *HabitsHandler) ChecksForPeriod(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryPeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	checks, err := h.Service.ChecksForPeriod(r.Context(), UsernameFromCtx(r.Context()), from, to)
	reply(w, r, checks, err)
}

// UpsertCheck takes the habit from the path and date, completed and comment from the query.
func (h *HabitsHandler) UpsertCheck(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	day, err := queryDay(r, "date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	completed, err := queryBool(r, "completed")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.Service.UpsertCheck(r.Context(), UsernameFromCtx(r.Context()), id, day, completed, r.URL.Query().Get("comment"))
	reply(w, r, c, err)
}

// UpsertCheckJSON is UpsertCheck with every field in the body.
func (h *HabitsHandler) UpsertCheckJSON(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Date.IsZero() {
		writeError(w, r, fmt.Errorf("%w: date is required", errs.ErrValidation))
		return
	}
	c, err := h.Service.UpsertCheck(r.Context(), UsernameFromCtx(r.Context()), req.HabitID, req.Date, req.Completed, req.Comment)
	reply(w, r, c, err)
}

func (h *HabitsHandler) Report(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryPeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	grid, err := h.Service.Period(r.Context(), UsernameFromCtx(r.Context()), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grid.View())
}

// Export renders the period report as an xlsx workbook.
func (h *HabitsHandler) Export(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryPeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	grid, err := h.Service.Period(r.Context(), UsernameFromCtx(r.Context()), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.HabitsXLSX(&buf, grid); err != nil {
		writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("habits_%s_%s.xlsx", from, to)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type rawIDs []uuid.UUID

func (ids *rawIDs) UnmarshalJSON(b []byte) error {
	var list []uuid.UUID
	if err := json.Unmarshal(b, &list); err == nil {
		*ids = list
		return nil
	}
	var req reorderRequest
	if err := json.Unmarshal(b, &req); err != nil {
		return err
	}
	*ids = req.IDs
	return nil
}
