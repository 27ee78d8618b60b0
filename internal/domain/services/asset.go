package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

// AssetService manages the files under courses/<id>/assets
type AssetService struct {
	deps Dependencies
}

// NewAssetService creates a new asset service
func NewAssetService(deps Dependencies) *AssetService {
	return &AssetService{deps: deps.withDefaults()}
}

// List returns every asset of a course, recursively, sorted by type and
// then by case-insensitive name
func (s *AssetService) List(ctx context.Context, course string) ([]entities.Asset, error) {
	if err := requireCourse(s.deps.Store, course); err != nil {
		return nil, err
	}

	root := coursePath(course, "assets")
	assets := []entities.Asset{}
	err := s.deps.Store.Walk(root, func(e ports.Entry) error {
		assets = append(assets, entities.NewAsset(course, strings.TrimPrefix(e.Path, root+"/"), e.Size))
		return nil
	})
	if errors.Is(err, entities.ErrNotFound) {
		return []entities.Asset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing assets of %s: %w", course, err)
	}

	sort.SliceStable(assets, func(i, j int) bool {
		if assets[i].Type != assets[j].Type {
			return assets[i].Type < assets[j].Type
		}
		return strings.ToLower(assets[i].Name) < strings.ToLower(assets[j].Name)
	})
	return assets, nil
}

// Upload stores data under a sanitised, de-duplicated name
func (s *AssetService) Upload(ctx context.Context, course, filename string, data []byte) (*entities.Asset, error) {
	if err := requireCourse(s.deps.Store, course); err != nil {
		return nil, err
	}

	name, err := s.deps.Store.CreateUnique(coursePath(course, "assets"), SanitizeFilename(filename), data)
	if err != nil {
		return nil, fmt.Errorf("storing asset %s: %w", filename, err)
	}

	s.deps.Logger.Info("uploaded asset %s to course %s", name, course)
	asset := entities.NewAsset(course, name, int64(len(data)))
	return &asset, nil
}

// Delete removes one asset file
func (s *AssetService) Delete(ctx context.Context, course, rel string) error {
	p, err := s.assetPath(course, rel)
	if err != nil {
		return err
	}

	entry, err := s.deps.Store.Stat(p)
	if err != nil || entry.IsDir {
		return notFound("asset " + rel)
	}
	if err := s.deps.Store.Remove(p); err != nil {
		return fmt.Errorf("deleting asset %s: %w", rel, err)
	}
	s.deps.Logger.Info("deleted asset %s from course %s", rel, course)
	return nil
}

// Open streams one asset file
func (s *AssetService) Open(ctx context.Context, course, rel string) (io.ReadSeekCloser, ports.Entry, error) {
	p, err := s.assetPath(course, rel)
	if err != nil {
		return nil, ports.Entry{}, err
	}

	r, entry, err := s.deps.Store.Open(p)
	if errors.Is(err, entities.ErrNotFound) {
		return nil, ports.Entry{}, notFound("asset " + rel)
	}
	if err != nil {
		return nil, ports.Entry{}, fmt.Errorf("opening asset %s: %w", rel, err)
	}
	return r, entry, nil
}

func (s *AssetService) assetPath(course, rel string) (string, error) {
	if err := requireCourse(s.deps.Store, course); err != nil {
		return "", err
	}
	clean, err := checkRelative(rel)
	if err != nil {
		return "", err
	}
	return coursePath(course, "assets", clean), nil
}

var _ ports.AssetService = (*AssetService)(nil)
