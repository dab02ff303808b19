package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"

	RoleAdmin = "admin"
)

// ErrUnknownUser is returned by a UserLookup when the token subject no longer exists.
var ErrUnknownUser = errors.New("unknown user")

// UserLookup resolves a token subject to the role currently stored for it.
type UserLookup func(ctx context.Context, userID string) (role string, err error)

type BearerAuth struct {
	JWTSecret []byte
	Lookup    UserLookup
}

func NewBearerAuth(secret []byte, lookup UserLookup) *BearerAuth {
	return &BearerAuth{JWTSecret: secret, Lookup: lookup}
}

func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.require(next, false)
}

func (m *BearerAuth) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.require(next, true)
}

func (m *BearerAuth) require(next echo.HandlerFunc, admin bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err != nil || claims == nil || claims.Subject == "" {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		role := claims.Role
		if m.Lookup != nil {
			role, err = m.Lookup(c.Request().Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, ErrUnknownUser) {
					return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, "cannot resolve user").SetInternal(err)
			}
		}

		if admin && role != RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}

		c.Set(CtxUserID, claims.Subject)
		c.Set(CtxRole, role)
		return next(c)
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}
