package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fxfiles/fxshare/auth"
	"github.com/fxfiles/fxshare/logging"
	"github.com/fxfiles/fxshare/sharing"
)

// Handler carries the daemon's collaborators into the HTTP layer
type Handler struct {
	service *sharing.Service
	limiter *rateLimiter
}

// NewHandler builds the HTTP handler set around a sharing service
func NewHandler(service *sharing.Service) *Handler {
	return &Handler{
		service: service,
		limiter: newRateLimiter(),
	}
}

// CreateSession mints a session token for the app frontend. The account
// secret is the only credential; there is no user database behind a
// single-account daemon.
func (h *Handler) CreateSession(c echo.Context) error {
	var request struct {
		AccountSecret string `json:"accountSecret"`
	}

	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	if !auth.VerifyAccountSecret(request.AccountSecret) {
		// Mitigate brute-force probing of the account secret
		time.Sleep(100 * time.Millisecond)
		logging.WarningLogger.Printf("Session login rejected from %s", c.RealIP())
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid account secret")
	}

	shareID := h.service.ShareID()
	token, err := auth.GenerateSessionToken(shareID)
	if err != nil {
		logging.ErrorLogger.Printf("Failed to generate session token: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Login failed")
	}

	logging.InfoLogger.Printf("Session opened for %s", shareID)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"token":   token,
		"shareId": shareID,
	})
}

// Whoami returns the account identity behind the session
func (h *Handler) Whoami(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"shareId": auth.ShareIDFromSession(c),
	})
}
