package guide

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const maxImageBytes = 20 << 20

// LoadImage reads an image file for upload. Files that do not sniff as an
// image are rejected before any request is made.
func LoadImage(path string) (*Image, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("image path is empty")
	}
	info, err := os.Stat(trimmed)
	if err != nil {
		return nil, fmt.Errorf("stat image: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", trimmed)
	}
	if info.Size() > maxImageBytes {
		return nil, fmt.Errorf("image is %d bytes, limit is %d", info.Size(), maxImageBytes)
	}
	data, err := os.ReadFile(trimmed)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%s does not look like an image (%s)", filepath.Base(trimmed), contentType)
	}
	return &Image{
		Name:        filepath.Base(trimmed),
		ContentType: contentType,
		Data:        data,
	}, nil
}
