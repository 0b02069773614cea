// Package media inspects local assets before submission so obviously bad
// uploads fail without touching the network.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Asset describes a local media file queued for upload.
type Asset struct {
	Path      string
	Name      string
	Size      int64
	Extension string
}

// Inspect stats path and captures the fields validation needs.
func Inspect(path string) (Asset, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return Asset{}, fmt.Errorf("asset path required")
	}
	info, err := os.Stat(trimmed)
	if err != nil {
		return Asset{}, fmt.Errorf("stat asset: %w", err)
	}
	if info.IsDir() {
		return Asset{}, fmt.Errorf("asset %s is a directory", trimmed)
	}
	return Asset{
		Path:      trimmed,
		Name:      filepath.Base(trimmed),
		Size:      info.Size(),
		Extension: strings.ToLower(filepath.Ext(trimmed)),
	}, nil
}

// Validate checks the asset against the configured type and size limits.
func Validate(asset Asset, allowedExtensions []string, maxSizeMiB int64) error {
	if asset.Size == 0 {
		return fmt.Errorf("asset %s is empty", asset.Name)
	}
	if maxSizeMiB > 0 {
		limit := maxSizeMiB * 1024 * 1024
		if asset.Size > limit {
			return fmt.Errorf("asset %s is %d bytes, exceeds limit of %d MiB", asset.Name, asset.Size, maxSizeMiB)
		}
	}
	for _, ext := range allowedExtensions {
		if asset.Extension == ext {
			return nil
		}
	}
	return fmt.Errorf("asset type %q is not supported (allowed: %s)", asset.Extension, strings.Join(allowedExtensions, ", "))
}
