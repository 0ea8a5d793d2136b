package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fxfiles/fxshare/logging"
	"github.com/fxfiles/fxshare/share"
)

// SharePreview is what an anonymous visitor may learn about a share before
// opening it. The object location and key material never leave the daemon.
type SharePreview struct {
	ShareID           string          `json:"shareId"`
	FileName          string          `json:"fileName,omitempty"`
	Size              int64           `json:"size,omitempty"`
	ContentType       string          `json:"contentType,omitempty"`
	Label             string          `json:"label,omitempty"`
	SenderID          string          `json:"senderId"`
	ShareType         share.ShareType `json:"shareType"`
	ShareMode         share.ShareMode `json:"shareMode"`
	CreatedAt         time.Time       `json:"createdAt"`
	ExpiresAt         *time.Time      `json:"expiresAt,omitempty"`
	PasswordProtected bool            `json:"passwordProtected"`
}

// ResolveShare lets an anonymous visitor preview a share before downloading.
// The web frontend renders its download page from this.
func (h *Handler) ResolveShare(c echo.Context) error {
	shareID := c.Param("id")

	outgoing, err := h.service.GetOutgoing(c.Request().Context(), shareID)
	if err != nil {
		return serviceError(err)
	}

	if outgoing.Revoked {
		return echo.NewHTTPError(http.StatusGone, "Share has been revoked")
	}
	if outgoing.IsExpired(time.Now().UTC()) {
		return echo.NewHTTPError(http.StatusGone, "Share link has expired")
	}

	token := outgoing.Token
	logging.InfoLogger.Printf("Share %s resolved anonymously from %s", shareID, c.RealIP())

	return c.JSON(http.StatusOK, SharePreview{
		ShareID:           token.ID,
		FileName:          token.FileName,
		Size:              token.Size,
		ContentType:       token.ContentType,
		Label:             token.Label,
		SenderID:          token.SenderID,
		ShareType:         token.Type,
		ShareMode:         token.Mode,
		CreatedAt:         token.CreatedAt,
		ExpiresAt:         token.ExpiresAt,
		PasswordProtected: token.Type == share.TypePasswordProtected,
	})
}

// DownloadShared serves decrypted share content to an anonymous visitor.
// Password failures back off exponentially per share and caller, and every
// failed attempt eats a small fixed delay.
func (h *Handler) DownloadShared(c echo.Context) error {
	shareID := c.Param("id")
	key := rateKey(shareID, c.RealIP())

	if allowed, retryAfter := h.limiter.check(key); !allowed {
		logging.InfoLogger.Printf("Rate limit active for share %s from %s: %v remaining",
			shareID, c.RealIP(), retryAfter)
		return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
			"error":      "rate_limited",
			"message":    "Too many failed attempts. Please try again later.",
			"retryAfter": int(retryAfter.Seconds()),
		})
	}

	var request struct {
		Password string `json:"password,omitempty"`
	}
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	content, err := h.service.OpenSharedContent(c.Request().Context(), shareID, request.Password)
	if err != nil {
		httpErr := serviceError(err)
		if httpErr.Code == http.StatusUnauthorized || httpErr.Code == http.StatusNotFound {
			h.limiter.fail(key)
			time.Sleep(100 * time.Millisecond)
		}
		return httpErr
	}

	h.limiter.reset(key)
	logging.InfoLogger.Printf("Share %s downloaded anonymously from %s", shareID, c.RealIP())
	return sendFile(c, &content.Token, content.Data)
}
