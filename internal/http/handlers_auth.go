package http

import (
	"errors"
	"net/http"

	"subtrack/internal/auth"
	"subtrack/internal/i18n"
	"subtrack/internal/log"
)

type meResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

func (s *Server) loginReady() bool {
	return s.deps.Provider != nil && s.deps.Provider.Configured() && s.deps.Sessions != nil
}

// handleLogin redirects to the identity provider. The caller's origin comes
// from ?origin= or the Origin header.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	loc := requestLocale(r, s.deps.DefaultLocale)
	if !s.loginReady() {
		ErrorResponse(http.StatusServiceUnavailable, i18n.T(loc, i18n.LoginNotConfigured)).Write(w)
		return
	}

	origin := r.URL.Query().Get("origin")
	if origin == "" {
		origin = r.Header.Get("Origin")
	}

	target, err := s.deps.Provider.LoginURL(origin)
	switch {
	case err == nil:
		http.Redirect(w, r, target, http.StatusFound)
	case errors.Is(err, auth.ErrNotConfigured):
		ErrorResponse(http.StatusServiceUnavailable, i18n.T(loc, i18n.LoginNotConfigured)).Write(w)
	case errors.Is(err, auth.ErrUnauthorizedOrigin):
		s.logAuth(r, "Login from unauthorized origin", err)
		ErrorResponse(http.StatusForbidden, i18n.T(loc, i18n.LoginUnauthorized)).Write(w)
	default:
		s.logAuth(r, "Failed to start login", err)
		InternalServerError(i18n.T(loc, i18n.LoginFailed)).Write(w)
	}
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loc := requestLocale(r, s.deps.DefaultLocale)
	if !s.loginReady() {
		ErrorResponse(http.StatusServiceUnavailable, i18n.T(loc, i18n.LoginNotConfigured)).Write(w)
		return
	}

	user, err := s.deps.Provider.Exchange(ctx, r.URL.Query())
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrLoginCancelled):
		UnauthorizedError(i18n.T(loc, i18n.LoginCancelled)).Write(w)
		return
	case errors.Is(err, auth.ErrInvalidState):
		s.logAuth(r, "Login callback with unknown state", err)
		BadRequestError(i18n.T(loc, i18n.LoginFailed)).Write(w)
		return
	default:
		s.logAuth(r, "Login exchange failed", err)
		ErrorResponse(http.StatusBadGateway, i18n.T(loc, i18n.LoginFailed)).Write(w)
		return
	}

	if s.deps.Users != nil {
		if err := s.deps.Users.UpsertUser(ctx, user); err != nil {
			s.logAuth(r, "Failed to store user", err)
			InternalServerError(i18n.T(loc, i18n.LoginFailed)).Write(w)
			return
		}
	}
	if err := s.deps.Sessions.Login(w, user); err != nil {
		s.logAuth(r, "Failed to issue session", err)
		InternalServerError(i18n.T(loc, i18n.LoginFailed)).Write(w)
		return
	}

	s.deps.Logger.WithComponent(log.ComponentAuth).InfoContext(ctx, "User signed in",
		log.FieldUserID, user.ID,
		log.FieldOperation, log.OpLogin)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sessions != nil {
		if err := s.deps.Sessions.Logout(w, r); err != nil {
			s.logAuth(r, "Failed to revoke session", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		UnauthorizedError(i18n.T(requestLocale(r, s.deps.DefaultLocale), i18n.SignInRequired)).Write(w)
		return
	}
	NewJSONResponse().Data(meResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
	}).Write(w)
}

func (s *Server) logAuth(r *http.Request, msg string, err error) {
	s.deps.Logger.WithComponent(log.ComponentAuth).WarnContext(r.Context(), msg,
		log.FieldPath, r.URL.Path,
		log.FieldError, err)
}
