package encoder

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"endorsement/internal/domain"
)

// DefaultMaxBytes bounds a single source photo read from disk or an upload.
const DefaultMaxBytes int64 = 10 << 20

// SourceImage is one uploaded photo (model or product). The generation core
// only reads it.
type SourceImage struct {
	Name     string
	MIMEType string
	Data     []byte
}

// IsZero reports whether the image is absent or carries no bytes.
func (s *SourceImage) IsZero() bool {
	return s == nil || len(s.Data) == 0
}

// Base64 encodes the image bytes for transmission.
func (s SourceImage) Base64() string {
	return base64.StdEncoding.EncodeToString(s.Data)
}

// FromReader reads at most limit bytes and sniffs the MIME type from the
// content. Non-image payloads are rejected with domain.ErrValidation.
func FromReader(name string, r io.Reader, limit int64) (SourceImage, error) {
	if r == nil {
		return SourceImage{}, fmt.Errorf("encoder: %s: %w", name, domain.ErrValidation)
	}
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return SourceImage{}, fmt.Errorf("encoder: read %s: %w", name, err)
	}
	if int64(len(data)) > limit {
		return SourceImage{}, fmt.Errorf("encoder: %s exceeds %d bytes: %w", name, limit, domain.ErrValidation)
	}
	if len(data) == 0 {
		return SourceImage{}, fmt.Errorf("encoder: %s is empty: %w", name, domain.ErrValidation)
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return SourceImage{}, fmt.Errorf("encoder: %s is %s, not an image: %w", name, mime.String(), domain.ErrValidation)
	}
	return SourceImage{
		Name:     filepath.Base(strings.TrimSpace(name)),
		MIMEType: mime.String(),
		Data:     data,
	}, nil
}

// FromFile loads a photo from disk.
func FromFile(path string) (SourceImage, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return SourceImage{}, fmt.Errorf("encoder: path is required: %w", domain.ErrValidation)
	}
	f, err := os.Open(path)
	if err != nil {
		return SourceImage{}, fmt.Errorf("encoder: open %s: %w", path, err)
	}
	defer f.Close()
	return FromReader(path, f, DefaultMaxBytes)
}

// DataURI joins a MIME type and base64 payload into a data URI.
func DataURI(mime, b64 string) string {
	mime = strings.TrimSpace(mime)
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + b64
}

// ParseDataURI splits a base64 data URI into its MIME type and decoded bytes.
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return "", nil, errors.New("encoder: not a data uri")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("encoder: data uri missing payload")
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, errors.New("encoder: data uri is not base64")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("encoder: decode data uri: %w", err)
	}
	return mime, data, nil
}

// Extension returns the file extension (with dot) for an image MIME type.
func Extension(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}
