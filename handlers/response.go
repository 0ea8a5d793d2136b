package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fxfiles/fxshare/crypto"
	"github.com/fxfiles/fxshare/logging"
	"github.com/fxfiles/fxshare/share"
	"github.com/fxfiles/fxshare/sharing"
)

// APIResponse represents the standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// JSONResponse sends a standard JSON response
func JSONResponse(c echo.Context, status int, message string, data interface{}) error {
	response := APIResponse{
		Success: status >= 200 && status < 300,
		Message: message,
		Data:    data,
	}
	return c.JSON(status, response)
}

// JSONError sends a standard JSON error response
func JSONError(c echo.Context, status int, message string) error {
	response := APIResponse{
		Success: false,
		Message: message,
	}
	return c.JSON(status, response)
}

// serviceError maps sharing-service sentinels onto HTTP errors. Anything
// unrecognized is logged and hidden behind a generic 500.
func serviceError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, sharing.ErrShareNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Share not found")
	case errors.Is(err, sharing.ErrShareExpired):
		return echo.NewHTTPError(http.StatusGone, "Share link has expired")
	case errors.Is(err, sharing.ErrShareRevoked):
		return echo.NewHTTPError(http.StatusGone, "Share has been revoked")
	case errors.Is(err, sharing.ErrWeakPassword):
		return echo.NewHTTPError(http.StatusBadRequest, "Share password is too weak")
	case errors.Is(err, sharing.ErrRecipientOnly):
		return echo.NewHTTPError(http.StatusForbidden, "This share can only be opened by its recipient")
	case errors.Is(err, sharing.ErrLinkSecretUnavailable):
		return echo.NewHTTPError(http.StatusConflict, "The link secret is not available on this device")
	case errors.Is(err, share.ErrMalformedToken), errors.Is(err, sharing.ErrInvalidShareLink):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid share link or token")
	case errors.Is(err, crypto.ErrInvalidKeyFormat):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid recipient key")
	case errors.Is(err, crypto.ErrDecryptionFailed):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid password")
	case errors.Is(err, sharing.ErrCloudSyncFailed), errors.Is(err, sharing.ErrObjectStore):
		logging.ErrorLogger.Printf("Storage backend failure: %v", err)
		return echo.NewHTTPError(http.StatusBadGateway, "Storage backend unavailable")
	default:
		logging.ErrorLogger.Printf("Unhandled service error: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}
