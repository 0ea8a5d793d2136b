package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/fxfiles/fxshare/auth"
)

// RegisterRoutes wires the daemon's endpoints onto an echo instance. Owner
// endpoints sit behind session auth; anonymous share access does not.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	// Session login; the account secret is the credential
	e.POST("/api/session", h.CreateSession)

	// Owner endpoints
	api := e.Group("/api", auth.SessionMiddleware())
	api.GET("/whoami", h.Whoami)

	api.POST("/shares", h.CreateShare)
	api.GET("/shares", h.ListShares)
	api.GET("/shares/for-path", h.SharesForPath)
	api.GET("/shares/:id", h.GetShare)
	api.GET("/shares/:id/link", h.GetShareLink)
	api.GET("/shares/:id/activity", h.ShareActivity)
	api.POST("/shares/:id/revoke", h.RevokeShare)
	api.DELETE("/shares/:id", h.DeleteShare)

	api.POST("/accepted", h.AcceptShare)
	api.GET("/accepted", h.ListAccepted)
	api.DELETE("/accepted/:id", h.RemoveAccepted)
	api.POST("/accepted/:id/download", h.DownloadAccepted)

	api.POST("/sync", h.SyncShares)
	api.GET("/sync-state", h.ListSyncStates)

	// Anonymous share access
	e.GET("/shared/:id", h.ResolveShare)
	e.POST("/api/share/:id/download", h.DownloadShared)
}
