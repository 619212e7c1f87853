package handlers

import (
	"net"
	"net/http"
	"strings"

	"github.com/diewo77/go-bistro/auth"
	"github.com/diewo77/go-bistro/httpx"
	"github.com/diewo77/go-bistro/i18n"
	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/diewo77/go-bistro/internal/services"
	"github.com/diewo77/go-bistro/validation"
)

type AuthHandler struct {
	responder
	accounts *services.AccountService
}

func NewAuthHandler(accounts *services.AccountService, logg *logger.Logger) *AuthHandler {
	return &AuthHandler{responder: newResponder(logg), accounts: accounts}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.page(w, r, "login.html", nil)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	user, err := h.accounts.Authenticate(r.Context(), email, r.FormValue("password"))
	if err != nil {
		msg := httpx.PublicMessage(err)
		if apperr.Is(err, apperr.CodeUnauthorized) {
			msg = i18n.T(i18n.LangFromContext(r.Context()), "invalid_login")
		}
		w.WriteHeader(httpx.Status(err))
		h.page(w, r, "login.html", map[string]any{"Error": msg, "Email": email})
		return
	}

	auth.CreateSession(w, user.ID)
	h.log.Info(h.log.WithUserID(r.Context(), user.ID), "auth.login")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.page(w, r, "signup.html", nil)
		return
	}

	in := services.SignupInput{
		Name:     strings.TrimSpace(r.FormValue("name")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	user, err := h.register(r, in)
	if err != nil {
		w.WriteHeader(httpx.Status(err))
		h.page(w, r, "signup.html", map[string]any{"Error": httpx.PublicMessage(err), "Form": in})
		return
	}

	auth.CreateSession(w, user.ID)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) register(r *http.Request, in services.SignupInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return h.accounts.Register(r.Context(), in)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Token exchanges credentials for a bearer token. Attempts are counted per
// client address.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var in services.TokenInput
	if err := validation.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.accounts.IssueToken(r.Context(), clientAddr(r), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, res)
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
