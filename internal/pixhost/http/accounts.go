package http

import (
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/service"
	"github.com/aussiebroadwan/pixhost/pkg/authsdk"
	"github.com/aussiebroadwan/pixhost/pkg/httpx"
	"github.com/aussiebroadwan/pixhost/pkg/slogx"
)

// AccountsHandler serves registration and the browser login session.
type AccountsHandler struct {
	UserService *service.UserService
	Sessions    *Sessions
}

// HandleRegister serves POST /register.
func (h *AccountsHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	f, oe := readFields(w, r)
	if oe != nil {
		oe.WriteError(w)
		return
	}

	u, err := h.UserService.Register(r.Context(), f.get("username"), f.raw("password"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.AccountResponse{Success: true, User: renderUser(u)})
}

// HandleLogin serves POST /auth/login.
func (h *AccountsHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	f, oe := readFields(w, r)
	if oe != nil {
		oe.WriteError(w)
		return
	}

	username, password := f.get("username"), f.raw("password")
	if username == "" || password == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	u, err := h.UserService.Verify(ctx, username, password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Sessions.Issue(w, u); err != nil {
		slogx.FromContext(ctx).Error("failed to sign session", slog.Any("error", err))
		authsdk.ErrServerError.WriteError(w)
		return
	}

	slogx.FromContext(ctx).Info("user logged in", slog.Int64("user_id", u.ID))
	httpx.WriteJSON(w, http.StatusOK, authsdk.AccountResponse{Success: true, User: renderUser(u)})
}

// HandleLogout serves POST /auth/logout.
func (h *AccountsHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
