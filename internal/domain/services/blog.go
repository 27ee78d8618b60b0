package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

const excerptRunes = 200

// BlogService manages blogs/<slug>/{config.json,content.md,assets/}
type BlogService struct {
	deps Dependencies
}

// NewBlogService creates a new blog service
func NewBlogService(deps Dependencies) *BlogService {
	return &BlogService{deps: deps.withDefaults()}
}

func blogPath(slug string, elem ...string) string {
	return path.Join(append([]string{blogsDir, slug}, elem...)...)
}

// List returns the published posts, newest first
func (s *BlogService) List(ctx context.Context) ([]entities.BlogConfig, error) {
	entries, err := s.deps.Store.List(blogsDir)
	if errors.Is(err, entities.ErrNotFound) {
		return []entities.BlogConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing blogs: %w", err)
	}

	posts := make([]entities.BlogConfig, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir {
			continue
		}
		if !s.deps.Store.Exists(blogPath(entry.Name, blogContent)) {
			continue
		}

		var cfg entities.BlogConfig
		if err := s.deps.readJSON(blogPath(entry.Name, blogConfigFile), &cfg); err != nil {
			if !errors.Is(err, entities.ErrNotFound) {
				s.deps.Logger.Warn("skipping blog %s: %v", entry.Name, err)
			}
			continue
		}
		if cfg.Draft {
			continue
		}
		if cfg.Slug == "" {
			cfg.Slug = entry.Name
		}

		if cfg.Excerpt == "" {
			doc, _, err := s.deps.loadDocument(blogPath(entry.Name, blogContent))
			if err != nil {
				s.deps.Logger.Warn("skipping blog %s: %v", entry.Name, err)
				continue
			}
			cfg.Excerpt = Excerpt(doc.Body)
		}
		posts = append(posts, cfg)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].PublishDate > posts[j].PublishDate
	})
	return posts, nil
}

// Excerpt returns the first line that is neither blank nor a heading,
// cut to 200 characters and followed by an ellipsis
func Excerpt(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		runes := []rune(line)
		if len(runes) > excerptRunes {
			runes = runes[:excerptRunes]
		}
		return string(runes) + "..."
	}
	return ""
}

// Get returns a published post; drafts are reported as not found
func (s *BlogService) Get(ctx context.Context, slug string) (*entities.BlogPost, error) {
	if err := checkSegment("slug", slug); err != nil {
		return nil, err
	}

	var cfg entities.BlogConfig
	err := s.deps.readJSON(blogPath(slug, blogConfigFile), &cfg)
	if errors.Is(err, entities.ErrNotFound) {
		return nil, notFound("blog post " + slug)
	}
	if err != nil {
		return nil, fmt.Errorf("reading blog %s: %w", slug, err)
	}
	if cfg.Draft {
		return nil, notFound("blog post " + slug)
	}

	doc, raw, err := s.deps.loadDocument(blogPath(slug, blogContent))
	if errors.Is(err, entities.ErrNotFound) {
		return nil, notFound("blog post content " + slug)
	}
	if err != nil {
		return nil, fmt.Errorf("reading blog %s: %w", slug, err)
	}

	if cfg.Slug == "" {
		cfg.Slug = slug
	}
	return &entities.BlogPost{
		Config:   cfg,
		Content:  raw,
		HTML:     s.deps.render(ports.ProfileBlog, doc.Body),
		Metadata: doc.Metadata,
	}, nil
}

// Create writes a new post. The slug comes from the request or the title.
func (s *BlogService) Create(ctx context.Context, req entities.BlogRequest) (*entities.BlogPost, error) {
	if err := req.Validate(); err != nil {
		return nil, invalidInput(err)
	}

	id := req.Slug
	if id == "" {
		id = GenerateCourseID(req.Title)
	} else if !slug.IsValid(id) {
		return nil, invalidInput(fmt.Errorf("slug %q is not valid", id))
	}
	if err := checkSegment("slug", id); err != nil {
		return nil, err
	}
	if s.deps.Store.Exists(blogPath(id)) {
		return nil, fmt.Errorf("%w: blog post %s", entities.ErrAlreadyExists, id)
	}

	if err := s.write(id, req); err != nil {
		return nil, err
	}
	if err := s.deps.Store.MkdirAll(blogPath(id, "assets")); err != nil {
		return nil, fmt.Errorf("creating blog assets directory: %w", err)
	}

	s.deps.Logger.Success("created blog post %s", id)
	return s.post(id)
}

// Update replaces the config and content of an existing post
func (s *BlogService) Update(ctx context.Context, id string, req entities.BlogRequest) (*entities.BlogPost, error) {
	if err := checkSegment("slug", id); err != nil {
		return nil, err
	}
	if !s.deps.Store.Exists(blogPath(id, blogConfigFile)) {
		return nil, notFound("blog post " + id)
	}
	if err := req.Validate(); err != nil {
		return nil, invalidInput(err)
	}

	if err := s.write(id, req); err != nil {
		return nil, err
	}
	return s.post(id)
}

func (s *BlogService) write(id string, req entities.BlogRequest) error {
	if err := s.deps.writeJSON(blogPath(id, blogConfigFile), req.Config(id)); err != nil {
		return fmt.Errorf("writing blog config: %w", err)
	}
	if err := s.deps.Store.Write(blogPath(id, blogContent), []byte(req.Content)); err != nil {
		return fmt.Errorf("writing blog content: %w", err)
	}
	return nil
}

// post loads a post regardless of its draft flag
func (s *BlogService) post(id string) (*entities.BlogPost, error) {
	var cfg entities.BlogConfig
	if err := s.deps.readJSON(blogPath(id, blogConfigFile), &cfg); err != nil {
		return nil, fmt.Errorf("reading blog %s: %w", id, err)
	}
	doc, raw, err := s.deps.loadDocument(blogPath(id, blogContent))
	if err != nil {
		return nil, fmt.Errorf("reading blog %s: %w", id, err)
	}
	return &entities.BlogPost{
		Config:   cfg,
		Content:  raw,
		HTML:     s.deps.render(ports.ProfileBlog, doc.Body),
		Metadata: doc.Metadata,
	}, nil
}

// Delete removes a post and its assets
func (s *BlogService) Delete(ctx context.Context, id string) error {
	if err := checkSegment("slug", id); err != nil {
		return err
	}
	if !s.deps.Store.Exists(blogPath(id)) {
		return notFound("blog post " + id)
	}
	if err := s.deps.Store.RemoveAll(blogPath(id)); err != nil {
		return fmt.Errorf("deleting blog %s: %w", id, err)
	}
	s.deps.Logger.Info("deleted blog post %s", id)
	return nil
}

// Asset opens blogs/<slug>/assets/<filename>
func (s *BlogService) Asset(ctx context.Context, id, filename string) (io.ReadSeekCloser, ports.Entry, error) {
	if err := checkSegment("slug", id); err != nil {
		return nil, ports.Entry{}, err
	}
	if err := checkSegment("filename", filename); err != nil {
		return nil, ports.Entry{}, err
	}
	if !s.deps.Store.Exists(blogPath(id)) {
		return nil, ports.Entry{}, notFound("blog post " + id)
	}

	r, entry, err := s.deps.Store.Open(blogPath(id, "assets", filename))
	if errors.Is(err, entities.ErrNotFound) {
		return nil, ports.Entry{}, notFound("asset " + filename)
	}
	if err != nil {
		return nil, ports.Entry{}, fmt.Errorf("opening blog asset %s: %w", filename, err)
	}
	return r, entry, nil
}

var _ ports.BlogService = (*BlogService)(nil)
