package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/phytopro-backend/api/middleware"
	"github.com/angelmondragon/phytopro-backend/api/responses"
	"github.com/angelmondragon/phytopro-backend/api/validators"
	"github.com/angelmondragon/phytopro-backend/internal/auth"
	"github.com/angelmondragon/phytopro-backend/internal/users"
	"github.com/angelmondragon/phytopro-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/phytopro-backend/pkg/errors"
	"github.com/angelmondragon/phytopro-backend/pkg/logger"
)

func AuthRegister(svc auth.Service, cookies config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Register(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		setSessionCookie(w, cookies, result)
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func AuthLogin(svc auth.Service, cookies config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Login(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		setSessionCookie(w, cookies, result)
		responses.WriteSuccess(w, result)
	}
}

// AuthSession exchanges an identity-provider session id for a local session.
func AuthSession(svc auth.Service, cookies config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.ExchangeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ExchangeSession(r.Context(), req.SessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		setSessionCookie(w, cookies, result)
		responses.WriteSuccess(w, result)
	}
}

func AuthLogout(svc auth.Service, cookies config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := validators.SessionToken(r, cookies.CookieName); token != "" {
			if err := svc.Logout(r.Context(), token); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		clearSessionCookie(w, cookies)
		responses.WriteSuccess(w, map[string]string{"message": "logged out"})
	}
}

func AuthMe(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFromContext(r.Context())
		if user == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}
		responses.WriteSuccess(w, users.FromModel(user))
	}
}

func setSessionCookie(w http.ResponseWriter, cfg config.SessionConfig, result *auth.SessionResult) {
	maxAge := int(time.Until(result.ExpiresAt).Seconds())
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    result.SessionToken,
		Path:     "/",
		Expires:  result.ExpiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteNoneMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, cfg config.SessionConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteNoneMode,
	})
}
