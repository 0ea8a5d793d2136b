package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/fxfiles/fxshare/config"
	"github.com/fxfiles/fxshare/crypto"
)

// Claims carried by a daemon session token. The daemon serves a single
// account, so the subject is the account's share ID rather than a user name.
type Claims struct {
	ShareID string `json:"shareId"`
	jwt.RegisteredClaims
}

// VerifyAccountSecret checks a login attempt against the configured account
// secret in constant time.
func VerifyAccountSecret(candidate string) bool {
	secret := config.GetConfig().Security.AccountSecret
	if secret == "" || candidate == "" {
		return false
	}
	return crypto.SecureCompare([]byte(candidate), []byte(secret))
}

// GenerateSessionToken mints a signed session token for the given account
func GenerateSessionToken(shareID string) (string, error) {
	cfg := config.GetConfig()
	ttl := time.Duration(cfg.Security.SessionTTLHours) * time.Hour
	now := time.Now()

	claims := &Claims{
		ShareID: shareID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "fxshare-daemon",
			Audience:  []string{"fxshare-api"},
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Security.JWTSecret))
}

// SessionMiddleware returns the Echo middleware that guards owner endpoints
func SessionMiddleware() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
		SigningKey: []byte(config.GetConfig().Security.JWTSecret),
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(401, "Unauthorized")
		},
	})
}

// ShareIDFromSession extracts the authenticated account's share ID from the
// request context. Only valid behind SessionMiddleware.
func ShareIDFromSession(c echo.Context) string {
	user, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := user.Claims.(*Claims)
	if !ok {
		return ""
	}
	return claims.ShareID
}
