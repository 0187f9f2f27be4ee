package handler

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/quanlytn/resource-portal/internal/api/metrics"
	appmw "github.com/quanlytn/resource-portal/internal/api/middleware"
	"github.com/quanlytn/resource-portal/internal/core/ports"
)

// AdminHandler exposes the admin view: full CRUD over the resource list,
// with optional binary attachments stored in the blob store.
type AdminHandler struct {
	resources ports.ResourceService
}

func NewAdminHandler(resources ports.ResourceService) *AdminHandler {
	return &AdminHandler{resources: resources}
}

// List handles GET /v1/admin/resources?search=&sort=.
func (h *AdminHandler) List(c echo.Context) error {
	result, err := h.resources.ListAdmin(c.Request().Context(), appmw.Session(c), ports.AdminListInput{
		Search: c.QueryParam("search"),
		Sort:   c.QueryParam("sort"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAdminListResponse(result))
}

// Create handles POST /v1/admin/resources. The body is either JSON
// (link-backed) or a multipart form carrying a "file" part (blob-backed).
func (h *AdminHandler) Create(c echo.Context) error {
	req, file, err := bindResourceRequest(c)
	if err != nil {
		return err
	}

	upload, closeUpload, err := openUpload(file)
	if err != nil {
		return err
	}
	defer closeUpload()

	created, err := h.resources.Create(c.Request().Context(), appmw.Session(c), ports.CreateResourceInput{
		Name:        req.Name,
		Link:        req.Link,
		Description: req.Description,
		Category:    req.Category,
		File:        upload,
	})
	if err != nil {
		metrics.ResourceMutationsTotal.WithLabelValues("create", "failure").Inc()
		return err
	}

	metrics.ResourceMutationsTotal.WithLabelValues("create", "success").Inc()
	return c.JSON(http.StatusCreated, toAdminResourceResponse(*created))
}

// Update handles PUT /v1/admin/resources/:id with the same body shapes as
// Create. Uploading a new file swaps the source; the old blob is cleaned up
// in the background once the record update lands.
func (h *AdminHandler) Update(c echo.Context) error {
	req, file, err := bindResourceRequest(c)
	if err != nil {
		return err
	}

	upload, closeUpload, err := openUpload(file)
	if err != nil {
		return err
	}
	defer closeUpload()

	updated, err := h.resources.Update(c.Request().Context(), appmw.Session(c), c.Param("id"), ports.UpdateResourceInput{
		Name:        req.Name,
		Link:        req.Link,
		Description: req.Description,
		Category:    req.Category,
		File:        upload,
	})
	if err != nil {
		metrics.ResourceMutationsTotal.WithLabelValues("update", "failure").Inc()
		return err
	}

	metrics.ResourceMutationsTotal.WithLabelValues("update", "success").Inc()
	return c.JSON(http.StatusOK, toAdminResourceResponse(*updated))
}

// Delete handles DELETE /v1/admin/resources/:id. The associated blob, if
// any, is deleted best-effort after the record is gone.
func (h *AdminHandler) Delete(c echo.Context) error {
	if err := h.resources.Delete(c.Request().Context(), appmw.Session(c), c.Param("id")); err != nil {
		metrics.ResourceMutationsTotal.WithLabelValues("delete", "failure").Inc()
		return err
	}
	metrics.ResourceMutationsTotal.WithLabelValues("delete", "success").Inc()
	return c.NoContent(http.StatusNoContent)
}

// bindResourceRequest accepts both body shapes. Multipart forms may carry a
// "file" part; its absence is fine, the service decides whether a link
// suffices.
func bindResourceRequest(c echo.Context) (*resourceRequest, *multipart.FileHeader, error) {
	var req resourceRequest
	if err := c.Bind(&req); err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		return &req, nil, nil
	}

	file, err := c.FormFile("file")
	if err != nil {
		// No file part at all is a link-backed submission.
		return &req, nil, nil
	}
	return &req, file, nil
}

// openUpload turns a multipart file header into a service upload. The
// returned closer is a no-op when there is no file.
func openUpload(fh *multipart.FileHeader) (*ports.FileUpload, func(), error) {
	if fh == nil {
		return nil, func() {}, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "failed to open uploaded file")
	}
	return &ports.FileUpload{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
