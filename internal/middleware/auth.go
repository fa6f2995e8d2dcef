package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/arbor-dev/arbor/internal/domain"
	"github.com/arbor-dev/arbor/internal/jwt"
	"github.com/arbor-dev/arbor/internal/utils"
)

// Key to store the viewer id in the request context
type key int

const ViewerKey key = 0

// Auth holds dependencies for authentication middleware
type Auth struct {
	jwtService jwt.JwtService
}

func NewAuth(jwtService jwt.JwtService) *Auth {
	return &Auth{jwtService: jwtService}
}

// NeedAuth returns middleware that requires a valid token
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer, err := a.extractViewer(r)
			if err != nil {
				if err == errNoToken {
					http.Error(w, "Please sign-in", http.StatusUnauthorized)
					return
				}
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), ViewerKey, viewer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth populates the viewer if a valid token is present, but lets
// anonymous requests through. Anonymous reads see scores without personal
// vote state.
func (a *Auth) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if viewer, err := a.extractViewer(r); err == nil {
				ctx := context.WithValue(r.Context(), ViewerKey, viewer)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractViewer pulls the token from cookie (browser clients) or the
// Authorization header (API clients) and validates it.
func (a *Auth) extractViewer(r *http.Request) (domain.UserId, error) {
	var tokenString string
	accessCookie, err := r.Cookie("accessToken")
	if err == nil {
		tokenString = accessCookie.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		tokenString = token
	}

	if tokenString == "" {
		return "", errNoToken
	}

	return a.jwtService.DecodeToken(tokenString)
}

var errNoToken = errorString("no token")

type errorString string

func (e errorString) Error() string { return string(e) }

// GetViewerFromContext retrieves the viewer id from the context.
// Empty string means anonymous.
func GetViewerFromContext(r *http.Request) domain.UserId {
	viewer, ok := r.Context().Value(ViewerKey).(domain.UserId)
	if !ok {
		return ""
	}
	return viewer
}
