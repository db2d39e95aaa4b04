package encoder

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"endorsement/internal/domain"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestFromReaderSniffsMIME(t *testing.T) {
	img, err := FromReader("uploads/model.png", bytes.NewReader(pngHeader), 0)
	if err != nil {
		t.Fatalf("FromReader error: %v", err)
	}
	if img.MIMEType != "image/png" {
		t.Fatalf("MIMEType = %q, want image/png", img.MIMEType)
	}
	if img.Name != "model.png" {
		t.Fatalf("Name = %q, want model.png", img.Name)
	}
	if img.IsZero() {
		t.Fatalf("expected image to carry data")
	}
}

func TestFromReaderRejects(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		limit int64
	}{
		{name: "empty", data: nil},
		{name: "text", data: []byte("hello world")},
		{name: "too large", data: pngHeader, limit: 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromReader("x", bytes.NewReader(tc.data), tc.limit)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "product.png")
	if err := os.WriteFile(path, pngHeader, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	img, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile error: %v", err)
	}
	if !bytes.Equal(img.Data, pngHeader) {
		t.Fatalf("unexpected data: %v", img.Data)
	}
	if _, err := FromFile(""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty path, got %v", err)
	}
}

func TestDataURIRoundTrip(t *testing.T) {
	img := SourceImage{MIMEType: "image/png", Data: pngHeader}
	uri := DataURI(img.MIMEType, img.Base64())
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("unexpected uri prefix: %s", uri)
	}
	mime, data, err := ParseDataURI(uri)
	if err != nil {
		t.Fatalf("ParseDataURI error: %v", err)
	}
	if mime != "image/png" || !bytes.Equal(data, pngHeader) {
		t.Fatalf("round trip mismatch: %s %v", mime, data)
	}
}

func TestParseDataURIErrors(t *testing.T) {
	for _, uri := range []string{"https://example.com/a.png", "data:image/png;base64", "data:image/png,abc", "data:image/png;base64,%%%"} {
		if _, _, err := ParseDataURI(uri); err == nil {
			t.Fatalf("expected error for %q", uri)
		}
	}
}
