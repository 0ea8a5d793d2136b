package handlers

import (
	"encoding/base64"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"

	"github.com/fxfiles/fxshare/logging"
	"github.com/fxfiles/fxshare/share"
	"github.com/fxfiles/fxshare/sharing"
)

// CreateShareRequest is the body for creating any kind of share
type CreateShareRequest struct {
	Bucket        string `json:"bucket"`
	Path          string `json:"path"`
	ShareType     string `json:"shareType"` // recipient | publicLink | passwordProtected
	RecipientKey  string `json:"recipientKey,omitempty"`
	RecipientName string `json:"recipientName,omitempty"`
	Password      string `json:"password,omitempty"`
	Permissions   string `json:"permissions,omitempty"`
	ExpiryDays    int    `json:"expiryDays,omitempty"`
	Label         string `json:"label,omitempty"`
	Snapshot      bool   `json:"snapshot,omitempty"`
	LocalPath     string `json:"localPath,omitempty"` // snapshot binding source
	FileName      string `json:"fileName,omitempty"`
	ContentType   string `json:"contentType,omitempty"`
	Size          int64  `json:"size,omitempty"`
}

// ShareResponse is returned for share creation and lookups that carry a link
type ShareResponse struct {
	Share *share.OutgoingShare `json:"share"`
	Link  string               `json:"link,omitempty"`
}

// CreateShare creates a share of the requested type. Snapshot requests
// resolve their binding from the local path's sync state; when no trustworthy
// binding exists the share silently degrades to temporal.
func (h *Handler) CreateShare(c echo.Context) error {
	var request CreateShareRequest
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if request.Bucket == "" || request.Path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "bucket and path are required")
	}

	ctx := c.Request().Context()

	req := &sharing.ShareRequest{
		Bucket:      request.Bucket,
		Path:        request.Path,
		Permissions: share.Permissions(request.Permissions),
		ExpiryDays:  request.ExpiryDays,
		Label:       request.Label,
		FileName:    request.FileName,
		ContentType: request.ContentType,
		Size:        request.Size,
	}
	if request.Permissions == "" {
		req.Permissions = share.PermReadOnly
	}

	if request.Snapshot {
		if request.LocalPath == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "localPath is required for snapshot shares")
		}
		binding, err := h.service.ResolveSnapshotBinding(ctx, request.LocalPath)
		if err != nil {
			return serviceError(err)
		}
		if binding != nil {
			req.Mode = share.ModeSnapshot
			req.Snapshot = binding
		}
	}

	var response ShareResponse
	switch request.ShareType {
	case "recipient":
		if request.RecipientKey == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "recipientKey is required for recipient shares")
		}
		outgoing, err := h.service.ShareWithUser(ctx, req, request.RecipientKey, request.RecipientName)
		if err != nil {
			return serviceError(err)
		}
		link, err := h.service.GenerateShareLink(&outgoing.Token, nil)
		if err != nil {
			return serviceError(err)
		}
		response = ShareResponse{Share: outgoing, Link: link}

	case "publicLink", "":
		generated, err := h.service.CreatePublicLink(ctx, req)
		if err != nil {
			return serviceError(err)
		}
		response = ShareResponse{Share: generated.Share, Link: generated.Link}

	case "passwordProtected":
		if request.Password == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "password is required for password-protected shares")
		}
		generated, err := h.service.CreatePasswordProtectedLink(ctx, req, request.Password)
		if err != nil {
			return serviceError(err)
		}
		response = ShareResponse{Share: generated.Share, Link: generated.Link}

	default:
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown share type: "+request.ShareType)
	}

	logging.InfoLogger.Printf("Share %s created over HTTP (%s %s/%s)",
		response.Share.Token.ID, response.Share.Token.Type, request.Bucket, request.Path)
	return c.JSON(http.StatusCreated, response)
}

// ListShares returns outgoing shares; expired and revoked ones only with ?all=1
func (h *Handler) ListShares(c echo.Context) error {
	includeInvalid := listAll(c)
	shares, err := h.service.ListOutgoing(c.Request().Context(), includeInvalid)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"shares": shares,
	})
}

// GetShare returns a single outgoing share by ID
func (h *Handler) GetShare(c echo.Context) error {
	outgoing, err := h.service.GetOutgoing(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, ShareResponse{Share: outgoing})
}

// GetShareLink rebuilds the share link for an existing share. Public links
// created on another device have no local secret and yield a 409.
func (h *Handler) GetShareLink(c echo.Context) error {
	ctx := c.Request().Context()
	outgoing, err := h.service.GetOutgoing(ctx, c.Param("id"))
	if err != nil {
		return serviceError(err)
	}
	link, err := h.service.GenerateShareLinkFromOutgoing(ctx, outgoing)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"link": link,
	})
}

// ShareActivity returns the audit trail of a share, oldest first
func (h *Handler) ShareActivity(c echo.Context) error {
	events, err := h.service.ShareActivity(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": events,
	})
}

// RevokeShare permanently disables a share
func (h *Handler) RevokeShare(c echo.Context) error {
	shareID := c.Param("id")
	if err := h.service.RevokeShare(c.Request().Context(), shareID); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Share revoked",
	})
}

// DeleteShare removes a share record entirely
func (h *Handler) DeleteShare(c echo.Context) error {
	shareID := c.Param("id")
	if err := h.service.DeleteShare(c.Request().Context(), shareID); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Share deleted",
	})
}

// SharesForPath reports which shares cover a bucket path, in both
// directions: shares of ancestors covering the path and shares of anything
// nested under it.
func (h *Handler) SharesForPath(c echo.Context) error {
	bucket := c.QueryParam("bucket")
	pathParam := c.QueryParam("path")
	if bucket == "" || pathParam == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "bucket and path query parameters are required")
	}

	shares, err := h.service.SharesForPath(c.Request().Context(), bucket, pathParam)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"shares": shares,
		"shared": len(shares) > 0,
	})
}

// AcceptShare takes in a share from a link or a raw token
func (h *Handler) AcceptShare(c echo.Context) error {
	var request struct {
		Link       string `json:"link,omitempty"`
		Token      string `json:"token,omitempty"`
		LinkSecret string `json:"linkSecret,omitempty"` // base64url, only with Token
	}
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	ctx := c.Request().Context()

	var accepted *share.AcceptedShare
	var err error
	switch {
	case request.Link != "":
		accepted, err = h.service.AcceptShareFromURL(ctx, request.Link)
	case request.Token != "":
		var secret []byte
		if request.LinkSecret != "" {
			secret, err = base64.RawURLEncoding.DecodeString(request.LinkSecret)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "linkSecret is not valid base64url")
			}
		}
		accepted, err = h.service.AcceptShareFromString(ctx, request.Token, secret)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "link or token is required")
	}
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"accepted": accepted,
	})
}

// ListAccepted returns accepted shares; expired ones only with ?all=1
func (h *Handler) ListAccepted(c echo.Context) error {
	includeExpired := listAll(c)
	accepted, err := h.service.ListAccepted(c.Request().Context(), includeExpired)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"accepted": accepted,
	})
}

// RemoveAccepted forgets an accepted share on this device
func (h *Handler) RemoveAccepted(c echo.Context) error {
	if err := h.service.RemoveAcceptedShare(c.Request().Context(), c.Param("id")); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Accepted share removed",
	})
}

// DownloadAccepted fetches and decrypts the content behind an accepted share
func (h *Handler) DownloadAccepted(c echo.Context) error {
	var request struct {
		Password string `json:"password,omitempty"`
	}
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	ctx := c.Request().Context()
	accepted, err := h.service.GetAccepted(ctx, c.Param("id"))
	if err != nil {
		return serviceError(err)
	}

	data, err := h.service.DownloadSharedFile(ctx, accepted, request.Password)
	if err != nil {
		return serviceError(err)
	}

	return sendFile(c, &accepted.Token, data)
}

// SyncShares reconciles the local share set with the cloud mirror on demand
func (h *Handler) SyncShares(c echo.Context) error {
	merged, err := h.service.SyncFromCloud(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"shares": merged,
		"count":  len(merged),
	})
}

// ListSyncStates exposes the local upload/sync registry
func (h *Handler) ListSyncStates(c echo.Context) error {
	states, err := h.service.ListSyncStates(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"states": states,
	})
}

func listAll(c echo.Context) bool {
	all := c.QueryParam("all")
	return all == "1" || all == "true"
}

// sendFile writes decrypted share content with download headers
func sendFile(c echo.Context, token *share.ShareToken, data []byte) error {
	fileName := token.FileName
	if fileName == "" {
		fileName = path.Base(token.Path)
	}
	contentType := token.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
	return c.Blob(http.StatusOK, contentType, data)
}
