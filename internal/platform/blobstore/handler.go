package blobstore

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
)

// Handler serves media upload and download under /midias.
type Handler struct {
	store   Store
	baseURL string
	now     func() time.Time
}

// NewHandler returns a handler whose upload responses carry URLs rooted at
// baseURL (for example "https://api.example.org/api/v1/midias").
func NewHandler(store Store, baseURL string) *Handler {
	return &Handler{store: store, baseURL: strings.TrimSuffix(baseURL, "/"), now: time.Now}
}

// RegisterRoutes mounts the media routes. Uploads are limited to clinical and
// management callers through guard; downloads to any authenticated caller.
func (h *Handler) RegisterRoutes(api *echo.Group, read, write echo.MiddlewareFunc) {
	api.POST("/midias", h.Upload, write)
	api.GET("/midias/*", h.Download, read)
}

// UploadResponse is returned by POST /midias.
type UploadResponse struct {
	Object
	URL string `json:"url"`
}

// NewKey builds "<category>/<yyyy>/<mm>/<uuid><ext>".
func NewKey(category, filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%04d/%02d/%s%s", category, now.Year(), int(now.Month()), uuid.NewString(), ext)
}

func (h *Handler) Upload(c echo.Context) error {
	category := c.FormValue("categoria")
	file, err := c.FormFile("file")
	if err != nil {
		return apierr.HTTP(apierr.NewValidationError("file", "file is required"))
	}
	contentType := file.Header.Get("Content-Type")

	if err := ValidateUpload(category, contentType, file.Size); err != nil {
		return h.mapError(err)
	}

	src, err := file.Open()
	if err != nil {
		return apierr.HTTP(fmt.Errorf("open upload: %w", err))
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, MaxFileSize+1))
	if err != nil {
		return apierr.HTTP(fmt.Errorf("read upload: %w", err))
	}
	if len(data) > MaxFileSize {
		return h.mapError(ErrFileTooLarge)
	}

	now := h.now().UTC()
	key := NewKey(category, file.Filename, now)
	if err := h.store.Put(c.Request().Context(), key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		return h.mapError(err)
	}

	sum := sha256.Sum256(data)
	return c.JSON(http.StatusCreated, UploadResponse{
		Object: Object{
			Key:          key,
			ContentType:  contentType,
			Size:         int64(len(data)),
			SHA256:       fmt.Sprintf("%x", sum),
			LastModified: now,
		},
		URL: h.baseURL + "/" + key,
	})
}

func (h *Handler) Download(c echo.Context) error {
	key := c.Param("*")
	if key == "" || strings.Contains(key, "..") {
		return apierr.HTTP(apierr.ErrNotFound)
	}
	rc, meta, err := h.store.Get(c.Request().Context(), key)
	if err != nil {
		return h.mapError(err)
	}
	defer rc.Close()

	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, path.Base(key)))
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}

func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, ErrObjectNotFound):
		return apierr.HTTP(apierr.ErrNotFound)
	case errors.Is(err, ErrFileTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, apierr.Body{Message: err.Error()})
	case errors.Is(err, ErrInvalidContentType):
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, apierr.Body{Message: err.Error()})
	case errors.Is(err, ErrInvalidCategory):
		return apierr.HTTP(apierr.NewValidationError("categoria", err.Error()))
	}
	return apierr.HTTP(err)
}
