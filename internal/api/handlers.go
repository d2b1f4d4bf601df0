package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"phonelogin/internal/auth"
	"phonelogin/internal/autherr"
	"phonelogin/internal/models"
	"phonelogin/internal/phone"
)

// SessionReader reports the current session.
type SessionReader interface {
	State(ctx context.Context) models.Session
}

// Handler serves the login and dashboard views of the single local user.
type Handler struct {
	login    *auth.Login
	guard    *auth.Guard
	sessions SessionReader
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler wires the views. login and guard must navigate through
// RedirectNavigator.
func NewHandler(login *auth.Login, guard *auth.Guard, sessions SessionReader, log zerolog.Logger) *Handler {
	v := validator.New()
	if err := phone.RegisterValidation(v); err != nil {
		panic(err)
	}
	return &Handler{
		login:    login,
		guard:    guard,
		sessions: sessions,
		validate: v,
		log:      log.With().Str("component", "api").Logger(),
	}
}

type loginRequest struct {
	Phone string `json:"phone" validate:"max=64"`
}

type phoneCheckRequest struct {
	Phone string `json:"phone" validate:"required,iranmobile"`
}

type phoneCheckResponse struct {
	Valid      bool   `json:"valid"`
	Normalized string `json:"normalized,omitempty"`
}

type loginView struct {
	auth.Snapshot
	Session models.Session `json:"session"`
}

type dashboardView struct {
	User *models.UserRecord `json:"user"`
}

// LoginPage shows the login state, or redirects users who are signed in.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	ctx, slot := withRedirectSlot(r.Context())
	if h.guard.RedirectIfAuthenticated(ctx) && slot.set {
		writeRedirect(w, slot.to)
		return
	}
	writeJSON(w, http.StatusOK, loginView{Snapshot: h.login.Snapshot(), Session: h.sessions.State(ctx)})
}

// Submit starts a fresh login for the posted phone number.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLogin(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "phone number is too long")
		return
	}
	h.runFlow(w, r, func(ctx context.Context) error { return h.login.Submit(ctx, req.Phone) })
}

// Retry re-runs the last submission.
func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	h.runFlow(w, r, h.login.Retry)
}

// Reset returns the login flow to idle.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.login.Reset(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.login.Snapshot())
}

func (h *Handler) runFlow(w http.ResponseWriter, r *http.Request, run func(ctx context.Context) error) {
	ctx, slot := withRedirectSlot(r.Context())
	err := run(ctx)
	switch {
	case errors.Is(err, auth.ErrBusy), errors.Is(err, auth.ErrRetryNotAllowed):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		aerr := autherr.As(err)
		writeJSON(w, aerr.HTTPStatus(), h.login.Snapshot())
		return
	}
	if slot.set {
		writeRedirect(w, slot.to)
		return
	}
	writeJSON(w, http.StatusOK, h.login.Snapshot())
}

// Dashboard is the protected view.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, slot := withRedirectSlot(r.Context())
	user, ok := h.guard.RequireAuthenticated(ctx)
	if !ok {
		if slot.set {
			writeRedirect(w, slot.to)
			return
		}
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	writeJSON(w, http.StatusOK, dashboardView{User: user})
}

// Logout clears the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, slot := withRedirectSlot(r.Context())
	if err := h.guard.Logout(ctx); err != nil {
		aerr := autherr.As(err)
		h.log.Warn().Err(err).Msg("logout failed")
		writeError(w, aerr.HTTPStatus(), aerr.Message)
		return
	}
	writeRedirect(w, slot.to)
}

// SessionState returns the derived session.
func (h *Handler) SessionState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.State(r.Context()))
}

// CheckPhone validates a number without starting a login.
func (h *Handler) CheckPhone(w http.ResponseWriter, r *http.Request) {
	var req phoneCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusOK, phoneCheckResponse{Valid: false})
		return
	}
	writeJSON(w, http.StatusOK, phoneCheckResponse{Valid: true, Normalized: phone.Normalize(req.Phone)})
}

func decodeLogin(r *http.Request) (loginRequest, error) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Phone = r.PostFormValue("phone")
	return req, nil
}
