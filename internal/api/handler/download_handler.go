package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quanlytn/resource-portal/internal/api/metrics"
	appmw "github.com/quanlytn/resource-portal/internal/api/middleware"
	"github.com/quanlytn/resource-portal/internal/core/ports"
)

// DownloadHandler exposes the read-only browse view and the authenticated
// file-fetch path for blob-backed resources.
type DownloadHandler struct {
	resources ports.ResourceService
}

func NewDownloadHandler(resources ports.ResourceService) *DownloadHandler {
	return &DownloadHandler{resources: resources}
}

// List handles GET /v1/downloads?search=&category=.
func (h *DownloadHandler) List(c echo.Context) error {
	items, err := h.resources.ListDownloads(c.Request().Context(), appmw.Session(c), ports.DownloadListInput{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDownloadListResponse(items))
}

type linkResponse struct {
	Link string `json:"link"`
}

// Fetch handles GET /v1/downloads/:id/file. Blob-backed resources are
// streamed back as an attachment fetched from the blob store with the
// caller's identity token; link-backed resources answer with the outbound
// link for the caller to follow.
func (h *DownloadHandler) Fetch(c echo.Context) error {
	result, err := h.resources.Download(c.Request().Context(), appmw.Session(c), c.Param("id"))
	if err != nil {
		return err
	}

	if result.Kind == ports.DownloadKindLink {
		metrics.DownloadsTotal.WithLabelValues(ports.DownloadKindLink).Inc()
		return c.JSON(http.StatusOK, linkResponse{Link: result.Link})
	}

	defer result.Body.Close()
	metrics.DownloadsTotal.WithLabelValues(ports.DownloadKindFile).Inc()

	contentType := result.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, result.FileName))
	return c.Stream(http.StatusOK, contentType, result.Body)
}
