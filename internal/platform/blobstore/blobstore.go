// Package blobstore stores the binary media attached to records: vehicle and
// scene photos, refusal and belongings photos, and incident audio notes.
// Records keep only the object key returned by the upload endpoint.
package blobstore

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrObjectNotFound     = errors.New("object not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed for this category")
	ErrInvalidCategory    = errors.New("unknown media category")
)

// MaxFileSize is the upload limit (25 MB).
const MaxFileSize = 25 * 1024 * 1024

// Media categories, named after the record fields they fill.
const (
	CategoryVehiclePhoto    = "foto_vtr"
	CategoryScenePhoto      = "foto_local"
	CategoryRefusalPhoto    = "foto_recusa"
	CategoryBelongingsPhoto = "foto_pertences"
	CategoryIncidentAudio   = "audio_ocorrencia"
)

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

var audioTypes = map[string]bool{
	"audio/mpeg": true,
	"audio/ogg":  true,
	"audio/wav":  true,
	"audio/webm": true,
	"audio/mp4":  true,
}

// AllowedContentTypes maps each category to the MIME types it accepts.
var AllowedContentTypes = map[string]map[string]bool{
	CategoryVehiclePhoto:    imageTypes,
	CategoryScenePhoto:      imageTypes,
	CategoryRefusalPhoto:    imageTypes,
	CategoryBelongingsPhoto: imageTypes,
	CategoryIncidentAudio:   audioTypes,
}

// Object describes a stored blob.
type Object struct {
	Key          string    `json:"key"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	SHA256       string    `json:"sha256,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is the object storage backend.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, *Object, error)
	Delete(ctx context.Context, key string) error
}

// ValidateUpload checks the category and the content type against it.
func ValidateUpload(category, contentType string, size int64) error {
	allowed, ok := AllowedContentTypes[category]
	if !ok {
		return ErrInvalidCategory
	}
	if !allowed[contentType] {
		return ErrInvalidContentType
	}
	if size > MaxFileSize {
		return ErrFileTooLarge
	}
	return nil
}
