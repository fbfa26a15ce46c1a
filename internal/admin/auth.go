package admin

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"edu_coupon_bot/internal/domain"
	"edu_coupon_bot/internal/httpx"
	"edu_coupon_bot/internal/logging"
)

const (
	// SessionCookie names the cookie carrying the session token.
	SessionCookie = "admin_session"
	// SessionTTL is how long a login stays valid.
	SessionTTL = 7 * 24 * time.Hour

	cookiePath       = "/admin"
	sessionTokenSize = 32
)

type contextKey struct{}

// newToken is overridable for tests.
var newToken = func() (string, error) {
	buf := make([]byte, sessionTokenSize)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func usernameFrom(ctx context.Context) string {
	username, _ := ctx.Value(contextKey{}).(string)
	return username
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		a.badRequest(w)
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		a.writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	user, err := a.accounts.FindActive(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		a.rejectLogin(w, username)
		return
	}
	if err != nil {
		a.fail(w, r, err, "admin")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		a.rejectLogin(w, username)
		return
	}

	token, err := newToken()
	if err != nil {
		a.fail(w, r, err, "session")
		return
	}

	session, err := a.accounts.CreateSession(ctx, token, user.Username, SessionTTL)
	if err != nil {
		a.fail(w, r, err, "session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.Token,
		Path:     cookiePath,
		Expires:  session.ExpiresAt,
		MaxAge:   int(SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	a.logger.WithFields(logging.Fields{
		"event": "admin_login",
		"admin": user.Username,
	}).Info("admin logged in")

	a.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "username": user.Username})
}

func (a *API) rejectLogin(w http.ResponseWriter, username string) {
	a.logger.WithFields(logging.Fields{
		"event": "admin_login_rejected",
		"admin": username,
	}).Warn("admin login rejected")
	a.writeError(w, http.StatusUnauthorized, "Invalid credentials")
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		ctx, cancel := a.storeContext(r)
		defer cancel()

		if err := a.accounts.DeleteSession(ctx, cookie.Value); err != nil && !errors.Is(err, domain.ErrNotFound) {
			a.fail(w, r, err, "session")
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     cookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	a.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *API) check(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"username":      usernameFrom(r.Context()),
	})
}

// requireSession rejects requests without a live session cookie.
func (a *API) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			a.writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx, cancel := a.storeContext(r)
		username, err := a.accounts.SessionUsername(ctx, cookie.Value)
		cancel()

		if errors.Is(err, domain.ErrNotFound) {
			a.writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if err != nil {
			a.fail(w, r, err, "session")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, username)))
	})
}
