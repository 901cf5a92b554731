package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/disintegration/imaging"
	"google.golang.org/api/option"

	"sareepos/backend/internal/domain"
	"sareepos/backend/internal/xid"
)

const (
	DefaultBucket = "saree-images"
	cacheControl  = "public, max-age=3600"
)

var ErrUnsupportedImage = errors.New("unsupported image")

// Uploader stores an item photo and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, upload domain.ImageUpload) (string, error)
}

// NoopUploader is used when no bucket is configured; items are saved without a photo.
type NoopUploader struct{}

func (NoopUploader) Upload(_ context.Context, _ domain.ImageUpload) (string, error) {
	return "", nil
}

type GCSUploader struct {
	client   *storage.Client
	bucket   string
	maxWidth int
	now      func() time.Time
}

// NewGCSUploader prefers explicit credentials JSON and falls back to application default credentials.
func NewGCSUploader(ctx context.Context, bucket string, credentialsJSON string, maxWidth int) (*GCSUploader, error) {
	if strings.TrimSpace(bucket) == "" {
		bucket = DefaultBucket
	}

	var client *storage.Client
	var err error
	if strings.TrimSpace(credentialsJSON) != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credentialsJSON)))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}

	return &GCSUploader{client: client, bucket: bucket, maxWidth: maxWidth, now: time.Now}, nil
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}

func (u *GCSUploader) Upload(ctx context.Context, upload domain.ImageUpload) (string, error) {
	data, ext, contentType, err := Prepare(upload, u.maxWidth)
	if err != nil {
		return "", err
	}

	name := xid.ObjectName(ext, u.now())
	wc := u.client.Bucket(u.bucket).Object(name).NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = cacheControl

	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("write object %s: %w", name, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("close object %s: %w", name, err)
	}
	return PublicURL(u.bucket, name), nil
}

func PublicURL(bucket, name string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, name)
}

// Prepare validates the photo and downsizes it to maxWidth. Images already within
// the limit are kept byte for byte.
func Prepare(upload domain.ImageUpload, maxWidth int) ([]byte, string, string, error) {
	if len(upload.Data) == 0 {
		return nil, "", "", ErrUnsupportedImage
	}

	img, err := imaging.Decode(bytes.NewReader(upload.Data))
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(upload.FileName)), ".")
	if ext == "" {
		ext = extensionFor(upload.ContentType)
	}
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "image/" + strings.Replace(ext, "jpg", "jpeg", 1)
	}

	if maxWidth < 1 || img.Bounds().Dx() <= maxWidth {
		return upload.Data, ext, contentType, nil
	}

	resized := imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG); err != nil {
		return nil, "", "", err
	}
	return buf.Bytes(), "jpg", "image/jpeg", nil
}

func extensionFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}
