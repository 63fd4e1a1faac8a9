package services

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/shaan-hospital/apiserver/internal/apperr"
	"github.com/shaan-hospital/apiserver/types"
)

// Folders under which uploaded images are stored.
const (
	FolderDoctors     = "doctors"
	FolderDepartments = "departments"
	FolderNews        = "news"
)

// allowedImageTypes maps accepted MIME types to the extension used for keys.
var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// ImageUpload is an image file received from a client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ObjectStore receives uploaded blobs and addresses them publicly.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	URL(key string) string
}

// ImageCleaner deletes stale images without blocking the caller.
type ImageCleaner interface {
	Schedule(ctx context.Context, publicID, reason string)
}

// Images uploads and retires images held by the object store.
type Images struct {
	store   ObjectStore
	cleaner ImageCleaner
}

// NewImages constructs Images. Either dependency may be nil: without a store
// uploads fail, without a cleaner stale images are kept.
func NewImages(store ObjectStore, cleaner ImageCleaner) *Images {
	return &Images{store: store, cleaner: cleaner}
}

// Check verifies the upload is an allowed image type. It never touches the
// object store.
func (i *Images) Check(img *ImageUpload) error {
	if img == nil {
		return nil
	}
	if _, ok := allowedImageTypes[contentType(img)]; !ok {
		return apperr.UnsupportedMedia("File Format Not Supported!")
	}
	return nil
}

// Upload stores img under folder and returns its reference.
func (i *Images) Upload(ctx context.Context, folder string, img ImageUpload) (types.Image, error) {
	if err := i.Check(&img); err != nil {
		return types.Image{}, err
	}
	if i == nil || i.store == nil {
		return types.Image{}, apperr.Upstream("Image storage is not configured!", nil)
	}

	ct := contentType(&img)
	key := path.Join(folder, uuid.NewString()+allowedImageTypes[ct])
	if err := i.store.Put(ctx, key, bytes.NewReader(img.Data), int64(len(img.Data)), ct); err != nil {
		return types.Image{}, apperr.Upstream("Failed to upload image!", err)
	}
	return types.Image{PublicID: key, URL: i.store.URL(key)}, nil
}

// Discard schedules deletion of img. It is a no-op for nil images.
func (i *Images) Discard(ctx context.Context, img *types.Image, reason string) {
	if i == nil || i.cleaner == nil || img == nil || img.PublicID == "" {
		return
	}
	i.cleaner.Schedule(ctx, img.PublicID, reason)
}

// contentType returns the declared MIME type, sniffing the data when the
// client sent none.
func contentType(img *ImageUpload) string {
	declared := strings.TrimSpace(img.ContentType)
	if declared == "" || declared == "application/octet-stream" {
		declared = http.DetectContentType(img.Data)
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return ""
	}
	return strings.ToLower(mediaType)
}
