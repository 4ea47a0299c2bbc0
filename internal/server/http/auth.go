package httpserver

import (
	"net/http"

	"github.com/danek0100/External-Observer/internal/service"
)

// AuthHandler serves registration, login and account removal.
type AuthHandler struct {
	Service service.AuthService
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registered struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.Service.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, registered{ID: id, Username: req.Username})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tokens, err := h.Service.LoginWithIP(r.Context(), req.Username, req.Password, clientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteAccount(r.Context(), UsernameFromCtx(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
