// Package metadata writes a sidecar file next to each saved image
// describing where it came from.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pixgallery/pkg/pixabay"
)

// Sidecar formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ImageMetadata describes a saved image
type ImageMetadata struct {
	ID      int    `json:"id" yaml:"id"`
	PageURL string `json:"page_url" yaml:"page_url"`
	URL     string `json:"url" yaml:"url"`
	Query   string `json:"query,omitempty" yaml:"query,omitempty"`

	Width    int      `json:"width" yaml:"width"`
	Height   int      `json:"height" yaml:"height"`
	Type     string   `json:"type,omitempty" yaml:"type,omitempty"`
	Tags     []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	FileSize int64    `json:"file_size,omitempty" yaml:"file_size,omitempty"`

	DownloadedAt time.Time `json:"downloaded_at" yaml:"downloaded_at"`

	Likes     int `json:"likes" yaml:"likes"`
	Views     int `json:"views" yaml:"views"`
	Comments  int `json:"comments" yaml:"comments"`
	Downloads int `json:"downloads" yaml:"downloads"`

	Author Author `json:"author" yaml:"author"`
}

// Author is the Pixabay user who uploaded the image
type Author struct {
	ID       int    `json:"id" yaml:"id"`
	Username string `json:"username" yaml:"username"`
}

// FromHit converts a search hit to ImageMetadata
func FromHit(hit pixabay.Hit, query string, fileSize int64) *ImageMetadata {
	return &ImageMetadata{
		ID:           hit.ID,
		PageURL:      hit.PageURL,
		URL:          hit.FullSizeURL(),
		Query:        query,
		Width:        hit.ImageWidth,
		Height:       hit.ImageHeight,
		Type:         hit.Type,
		Tags:         hit.TagList(),
		FileSize:     fileSize,
		DownloadedAt: time.Now().UTC(),
		Likes:        hit.Likes,
		Views:        hit.Views,
		Comments:     hit.Comments,
		Downloads:    hit.Downloads,
		Author: Author{
			ID:       hit.UserID,
			Username: hit.User,
		},
	}
}

// SidecarPath is where metadata for imagePath is written in format
func SidecarPath(imagePath, format string) string {
	return imagePath + "." + format
}

// Save writes the sidecar for imagePath in the given format
func (m *ImageMetadata) Save(imagePath, format string) (string, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON, "":
		format = FormatJSON
		data, err = json.MarshalIndent(m, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(m)
	default:
		return "", fmt.Errorf("unknown metadata format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	path := SidecarPath(imagePath, format)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write metadata file: %w", err)
	}
	return path, nil
}

// Load reads the sidecar for imagePath, whichever format it was saved in
func Load(imagePath string) (*ImageMetadata, error) {
	for _, format := range []string{FormatJSON, FormatYAML} {
		data, err := os.ReadFile(SidecarPath(imagePath, format))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read metadata file: %w", err)
		}

		var meta ImageMetadata
		if format == FormatJSON {
			err = json.Unmarshal(data, &meta)
		} else {
			err = yaml.Unmarshal(data, &meta)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
		return &meta, nil
	}
	return nil, fmt.Errorf("no metadata for %s: %w", imagePath, os.ErrNotExist)
}

// AspectRatio returns the aspect ratio as a string
func (m *ImageMetadata) AspectRatio() string {
	if m.Height == 0 {
		return "unknown"
	}

	ratio := float64(m.Width) / float64(m.Height)

	switch {
	case ratio > 1.7 && ratio < 1.8:
		return "16:9"
	case ratio > 1.45 && ratio < 1.55:
		return "3:2"
	case ratio > 1.3 && ratio < 1.4:
		return "4:3"
	case ratio > 0.9 && ratio < 1.1:
		return "1:1"
	case ratio > 0.55 && ratio < 0.57:
		return "9:16"
	case ratio > 0.74 && ratio < 0.76:
		return "3:4"
	default:
		return fmt.Sprintf("%.2f:1", ratio)
	}
}

// CleanOrphaned removes sidecars whose image no longer exists and returns
// how many were removed
func CleanOrphaned(directory string) (int, error) {
	removed := 0
	err := filepath.WalkDir(directory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != "."+FormatJSON && ext != "."+FormatYAML {
			return nil
		}
		imagePath := strings.TrimSuffix(path, ext)
		if filepath.Ext(imagePath) == "" {
			return nil
		}

		if _, err := os.Stat(imagePath); os.IsNotExist(err) {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove orphaned metadata %s: %w", path, err)
			}
			removed++
		}
		return nil
	})
	return removed, err
}
