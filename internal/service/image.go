package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/foodshare/backend/config"
)

// ImageService decodes base64 image payloads from recipe writes and stores
// the binary either under a local media directory or in S3 when a bucket is
// configured.
type ImageService struct {
	mediaDir string
	baseURL  string
	s3       *config.S3Config
}

func NewImageService(mediaDir, baseURL string, s3 *config.S3Config) *ImageService {
	return &ImageService{
		mediaDir: mediaDir,
		baseURL:  baseURL,
		s3:       s3,
	}
}

var extByMime = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
}

// SaveBase64 stores a base64-encoded image, with or without a
// "data:<mime>;base64," prefix, and returns the URL it is served at.
func (s *ImageService) SaveBase64(ctx context.Context, data string) (string, error) {
	mime := "image/png"
	if strings.HasPrefix(data, "data:") {
		semi := strings.Index(data, ";base64,")
		if semi < 0 {
			return "", &ValidationError{Field: "image", Message: "malformed data URI"}
		}
		mime = data[len("data:"):semi]
		data = data[semi+len(";base64,"):]
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", &ValidationError{Field: "image", Message: "invalid base64 payload"}
	}

	ext, ok := extByMime[mime]
	if !ok {
		ext = ".png"
	}
	name := uuid.New().String() + ext

	if s.s3 != nil {
		return s.s3.PutObject(ctx, "recipes/"+name, mime, raw)
	}

	if err := os.MkdirAll(s.mediaDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.mediaDir, name), raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return s.baseURL + "/" + name, nil
}
