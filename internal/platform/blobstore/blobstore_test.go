package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name        string
		category    string
		contentType string
		size        int64
		want        error
	}{
		{"photo ok", CategoryVehiclePhoto, "image/jpeg", 1024, nil},
		{"audio ok", CategoryIncidentAudio, "audio/ogg", 1024, nil},
		{"audio as photo", CategoryScenePhoto, "audio/ogg", 10, ErrInvalidContentType},
		{"pdf", CategoryRefusalPhoto, "application/pdf", 10, ErrInvalidContentType},
		{"unknown category", "foto_qualquer", "image/png", 10, ErrInvalidCategory},
		{"too large", CategoryBelongingsPhoto, "image/png", MaxFileSize + 1, ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateUpload(tt.category, tt.contentType, tt.size); !errors.Is(err, tt.want) {
				t.Errorf("ValidateUpload() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Put(ctx, "foto_vtr/a.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"), 10); err != nil {
		t.Fatalf("Put: %v", err)
	}
	rc, meta, err := s.Get(ctx, "foto_vtr/a.jpg")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "jpeg-bytes" || meta.Size != 10 || meta.ContentType != "image/jpeg" {
		t.Errorf("unexpected object %+v %q", meta, data)
	}

	if err := s.Delete(ctx, "foto_vtr/a.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := s.Get(ctx, "foto_vtr/a.jpg"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestNewKey(t *testing.T) {
	key := NewKey(CategoryScenePhoto, "Cena.JPG", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))
	if !strings.HasPrefix(key, "foto_local/2024/03/") || !strings.HasSuffix(key, ".jpg") {
		t.Errorf("unexpected key %q", key)
	}
}

func multipartUpload(t *testing.T, category, contentType, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("categoria", category); err != nil {
		t.Fatal(err)
	}
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="cena.png"`)
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(body))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/midias", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestHandler_UploadThenDownload(t *testing.T) {
	store := NewMemoryStore()
	h := NewHandler(store, "http://localhost:8000/api/v1/midias/")
	e := echo.New()

	rec := httptest.NewRecorder()
	if err := h.Upload(e.NewContext(multipartUpload(t, CategoryScenePhoto, "image/png", "png-data"), rec)); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp UploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.URL != "http://localhost:8000/api/v1/midias/"+resp.Key {
		t.Errorf("unexpected url %q", resp.URL)
	}
	if resp.Size != int64(len("png-data")) || resp.SHA256 == "" {
		t.Errorf("unexpected response %+v", resp)
	}

	rec = httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/midias/"+resp.Key, nil), rec)
	c.SetParamNames("*")
	c.SetParamValues(resp.Key)
	if err := h.Download(c); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if rec.Body.String() != "png-data" || rec.Header().Get(echo.HeaderContentType) != "image/png" {
		t.Errorf("unexpected download %q %q", rec.Body.String(), rec.Header().Get(echo.HeaderContentType))
	}
}

func TestHandler_UploadRejectsWrongType(t *testing.T) {
	h := NewHandler(NewMemoryStore(), "")
	e := echo.New()
	err := h.Upload(e.NewContext(multipartUpload(t, CategoryScenePhoto, "application/pdf", "%PDF"), httptest.NewRecorder()))

	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %v", err)
	}
}

func TestHandler_DownloadMissing(t *testing.T) {
	h := NewHandler(NewMemoryStore(), "")
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/midias/x", nil), httptest.NewRecorder())
	c.SetParamNames("*")
	c.SetParamValues("foto_vtr/2024/01/missing.jpg")

	he, ok := h.Download(c).(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", he)
	}
}
