package httpserver

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/danek0100/External-Observer/internal/export"
	"github.com/danek0100/External-Observer/internal/model"
	"github.com/danek0100/External-Observer/internal/service"
)

// NotesHandler exposes the document service. The owner is always the authenticated user.
type NotesHandler struct {
	Service service.DocumentService
}

type searchRequest struct {
	Tags    []string `json:"tags"`
	Keyword string   `json:"keyword"`
}

func (h *NotesHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Service.List(r.Context(), UsernameFromCtx(r.Context()))
	reply(w, r, docs, err)
}

func (h *NotesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.DocumentInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.Service.Create(r.Context(), UsernameFromCtx(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *NotesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.Service.Get(r.Context(), UsernameFromCtx(r.Context()), id)
	reply(w, r, d, err)
}

func (h *NotesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in model.DocumentInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.Service.Update(r.Context(), UsernameFromCtx(r.Context()), id, in)
	reply(w, r, d, err)
}

func (h *NotesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), UsernameFromCtx(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotesHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	revs, err := h.Service.History(r.Context(), UsernameFromCtx(r.Context()), id)
	reply(w, r, revs, err)
}

func (h *NotesHandler) Backlinks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	docs, err := h.Service.Backlinks(r.Context(), UsernameFromCtx(r.Context()), id)
	reply(w, r, docs, err)
}

func (h *NotesHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	docs, err := h.Service.Search(r.Context(), UsernameFromCtx(r.Context()), req.Tags, req.Keyword)
	reply(w, r, docs, err)
}

func (h *NotesHandler) SearchTags(w http.ResponseWriter, r *http.Request) {
	matchAll, err := queryBool(r, "matchAll")
	if err != nil {
		writeError(w, r, err)
		return
	}
	docs, err := h.Service.FindByTags(r.Context(), UsernameFromCtx(r.Context()), queryTags(r), matchAll)
	reply(w, r, docs, err)
}

func (h *NotesHandler) SearchKeyword(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Service.FindByKeyword(r.Context(), UsernameFromCtx(r.Context()), r.URL.Query().Get("keyword"))
	reply(w, r, docs, err)
}

// Export streams every note of the user as a zip of markdown files.
func (h *NotesHandler) Export(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Service.List(r.Context(), UsernameFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.NotesZip(&buf, docs); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="notes.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// queryTags accepts both ?tags=a,b and ?tags=a&tags=b.
func queryTags(r *http.Request) []string {
	var tags []string
	for _, v := range r.URL.Query()["tags"] {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}
