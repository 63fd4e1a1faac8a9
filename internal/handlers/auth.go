package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shaan-hospital/apiserver/internal/apperr"
	"github.com/shaan-hospital/apiserver/internal/logger"
	"github.com/shaan-hospital/apiserver/internal/services"
	"github.com/shaan-hospital/apiserver/internal/session"
	"github.com/shaan-hospital/apiserver/types"
)

// Guard authenticates requests from the session cookie of a given kind.
type Guard struct {
	issuer *session.Issuer
	users  *services.UserService
	log    *logger.Logger
}

// NewGuard constructs a Guard with the provided dependencies.
func NewGuard(issuer *session.Issuer, users *services.UserService, log *logger.Logger) *Guard {
	return &Guard{issuer: issuer, users: users, log: log}
}

// RequireAdmin rejects requests without a valid administrator session.
func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return g.require(session.Admin, "Dashboard User is not authenticated!")(next)
}

// RequirePatient rejects requests without a valid patient session.
func (g *Guard) RequirePatient(next http.Handler) http.Handler {
	return g.require(session.Patient, "User is not authenticated!")(next)
}

// OptionalAdmin attaches the administrator when a valid admin session is
// present and lets every other request through anonymously.
func (g *Guard) OptionalAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := sessionToken(r, session.Admin)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		user, err := g.authenticate(r, session.Admin, token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), user)))
	})
}

func (g *Guard) require(kind session.Kind, missing string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := sessionToken(r, kind)
			if err != nil {
				writeFailure(w, r, g.log, apperr.Unauthenticated(missing))
				return
			}

			user, err := g.authenticate(r, kind, token)
			if err != nil {
				writeFailure(w, r, g.log, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), user)))
		})
	}
}

func (g *Guard) authenticate(r *http.Request, kind session.Kind, token string) (types.User, error) {
	claims, err := g.issuer.Verify(kind, token)
	if err != nil {
		// A valid token of the other kind is a role mismatch, not a bad token.
		if other, otherErr := g.issuer.Verify(otherKind(kind), token); otherErr == nil {
			return types.User{}, forbidden(other.Role)
		}
		return types.User{}, err
	}

	user, err := g.users.GetByID(r.Context(), claims.Subject)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) || apperr.IsKind(err, apperr.KindInvalidIdentifier) {
			return types.User{}, apperr.Unauthenticated("User not found!")
		}
		return types.User{}, err
	}
	if user.Role != kind.RequiredRole() {
		return types.User{}, forbidden(user.Role)
	}
	return user, nil
}

func forbidden(role types.Role) error {
	return apperr.Forbidden(fmt.Sprintf("%s not authorized for this resource!", role))
}

func otherKind(kind session.Kind) session.Kind {
	if kind == session.Admin {
		return session.Patient
	}
	return session.Admin
}

// sessionToken reads the kind's cookie, falling back to a bearer token.
func sessionToken(r *http.Request, kind session.Kind) (string, error) {
	if cookie, err := r.Cookie(kind.CookieName()); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return strings.TrimSpace(cookie.Value), nil
	}
	return bearerToken(r)
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
