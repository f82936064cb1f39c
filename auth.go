package linkpress

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const tokenUserKey = "token_user"

// User is the signed-in identity of a request.
type User struct {
	Name  string
	Admin bool
}

// CurrentUser returns the user signed in through the admin session or, for
// API routes, through a bearer token.
func CurrentUser(c echo.Context) (User, bool) {
	if u, ok := c.Get(tokenUserKey).(User); ok {
		return u, true
	}
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return User{}, false
	}
	if auth, ok := sess.Values["authenticated"].(bool); !ok || !auth {
		return User{}, false
	}
	name, _ := sess.Values["user"].(string)
	return User{Name: name, Admin: true}, true
}

// IsAdmin checks if the current request is authenticated as the admin.
func IsAdmin(c echo.Context) bool {
	u, ok := CurrentUser(c)
	return ok && u.Admin
}

func setAdminSession(c echo.Context, name string) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values["authenticated"] = true
	sess.Values["user"] = name
	return sess.Save(c.Request(), c.Response())
}

func clearAdminSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// requireAdmin sends visitors without an admin session to the login page.
func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !IsAdmin(c) {
			return c.Redirect(http.StatusSeeOther, "/admin/")
		}
		return next(c)
	}
}

type tokenClaims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

// issueToken signs an HS256 API token for name.
func (a *App) issueToken(name string, now time.Time) (string, time.Time, error) {
	expires := now.Add(a.Config.TokenTTL)
	claims := tokenClaims{
		Admin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   name,
			Issuer:    "linkpress",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.Config.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

func (a *App) parseToken(raw string) (User, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(a.Config.JWTSecret), nil
	}, jwt.WithIssuer("linkpress"), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return User{}, err
	}
	if !token.Valid {
		return User{}, errors.New("invalid token")
	}
	return User{Name: claims.Subject, Admin: claims.Admin}, nil
}

// requireToken authenticates API requests with an "Authorization: Bearer"
// header.
func (a *App) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		scheme, raw, ok := strings.Cut(c.Request().Header.Get(echo.HeaderAuthorization), " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || raw == "" {
			return apiError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header must be in format: Bearer {token}")
		}
		u, err := a.parseToken(strings.TrimSpace(raw))
		if err != nil {
			return apiError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
		}
		if !u.Admin {
			return apiError(c, http.StatusForbidden, "FORBIDDEN", "Admin token required")
		}
		c.Set(tokenUserKey, u)
		return next(c)
	}
}
