package entities

import (
	"path"
	"strings"
)

// AssetType classifies an asset by extension
type AssetType string

const (
	AssetImage    AssetType = "image"
	AssetVideo    AssetType = "video"
	AssetDocument AssetType = "document"
)

var (
	imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".svg": true}
	videoExtensions = map[string]bool{".mp4": true, ".mov": true, ".avi": true, ".webm": true}
)

// Asset describes a file stored under a course's assets directory.
type Asset struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	Type       AssetType `json:"type"`
	CanPreview bool      `json:"can_preview"`
	URL        string    `json:"url"`
}

// ClassifyAsset returns the asset type and whether browsers can preview it.
func ClassifyAsset(name string) (AssetType, bool) {
	ext := strings.ToLower(path.Ext(name))
	switch {
	case imageExtensions[ext]:
		return AssetImage, true
	case videoExtensions[ext]:
		return AssetVideo, true
	default:
		return AssetDocument, false
	}
}

// NewAsset builds an Asset for rel, a slash path relative to the course's
// assets directory.
func NewAsset(course, rel string, size int64) Asset {
	kind, preview := ClassifyAsset(rel)
	return Asset{
		Name:       path.Base(rel),
		Path:       rel,
		Size:       size,
		Type:       kind,
		CanPreview: preview,
		URL:        "/assets/" + course + "/" + rel,
	}
}
