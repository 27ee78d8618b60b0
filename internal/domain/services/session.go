package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

// sessionRecord is the <id>.json file kept next to the working copy
type sessionRecord struct {
	ID               string               `json:"id"`
	Kind             entities.SessionKind `json:"kind"`
	OriginalFilename string               `json:"originalFilename"`
	TempFilename     string               `json:"tempFilename"`
	CourseID         string               `json:"courseId"`
	CreatedAt        time.Time            `json:"createdAt"`
	LastModified     time.Time            `json:"lastModified"`
}

func (r sessionRecord) session(content string) *entities.EditSession {
	return &entities.EditSession{
		ID:               r.ID,
		Kind:             r.Kind,
		OriginalFilename: r.OriginalFilename,
		TempFilename:     r.TempFilename,
		CourseID:         r.CourseID,
		Content:          content,
		CreatedAt:        r.CreatedAt,
		LastModified:     r.LastModified,
	}
}

// EditSessionService keeps temporary working copies of course files of one
// kind until they are committed, deleted or expire
type EditSessionService struct {
	deps Dependencies
	kind entities.SessionKind
	dir  string
	ttl  time.Duration
}

// NewEditSessionService creates a session service for kind. Sessions idle
// for longer than ttl are removed by PurgeExpired.
func NewEditSessionService(deps Dependencies, kind entities.SessionKind, ttl time.Duration) *EditSessionService {
	dir := tempSlidesDir
	if kind == entities.SessionLabs {
		dir = tempLabsDir
	}
	return &EditSessionService{
		deps: deps.withDefaults(),
		kind: kind,
		dir:  dir,
		ttl:  ttl,
	}
}

// Kind returns the kind of file the service edits
func (s *EditSessionService) Kind() entities.SessionKind {
	return s.kind
}

func (s *EditSessionService) recordPath(id string) string {
	return path.Join(s.dir, id+".json")
}

// Create stores the initial content and returns the new session
func (s *EditSessionService) Create(ctx context.Context, req entities.CreateSessionRequest) (*entities.EditSession, error) {
	if err := req.Validate(); err != nil {
		return nil, invalidInput(err)
	}

	id := uuid.NewString()
	now := s.deps.Clock.Now().UTC()
	base, _, _ := strings.Cut(req.OriginalFilename, ".")
	rec := sessionRecord{
		ID:               id,
		Kind:             s.kind,
		OriginalFilename: req.OriginalFilename,
		TempFilename:     base + "-" + id + ".md",
		CourseID:         req.CourseID,
		CreatedAt:        now,
		LastModified:     now,
	}

	if err := s.deps.Store.Write(path.Join(s.dir, rec.TempFilename), []byte(req.Content)); err != nil {
		return nil, fmt.Errorf("writing %s session: %w", s.kind, err)
	}
	if err := s.deps.writeJSON(s.recordPath(id), rec); err != nil {
		_ = s.deps.Store.Remove(path.Join(s.dir, rec.TempFilename))
		return nil, fmt.Errorf("writing %s session record: %w", s.kind, err)
	}

	s.deps.Logger.Debug("opened %s session %s for %s/%s", s.kind, id, req.CourseID, req.OriginalFilename)
	return rec.session(req.Content), nil
}

// record loads the session record; unknown and malformed ids are not found
func (s *EditSessionService) record(id string) (sessionRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return sessionRecord{}, notFound(fmt.Sprintf("temporary %s file %s", s.kind, id))
	}

	var rec sessionRecord
	err := s.deps.readJSON(s.recordPath(id), &rec)
	if errors.Is(err, entities.ErrNotFound) {
		return sessionRecord{}, notFound(fmt.Sprintf("temporary %s file %s", s.kind, id))
	}
	if err != nil {
		return sessionRecord{}, fmt.Errorf("reading %s session %s: %w", s.kind, id, err)
	}
	if err := checkSegment("temp filename", rec.TempFilename); err != nil {
		return sessionRecord{}, err
	}
	return rec, nil
}

func (s *EditSessionService) content(rec sessionRecord) (string, error) {
	data, err := s.deps.Store.Read(path.Join(s.dir, rec.TempFilename))
	if errors.Is(err, entities.ErrNotFound) {
		return "", notFound(fmt.Sprintf("temporary %s file content %s", s.kind, rec.ID))
	}
	if err != nil {
		return "", fmt.Errorf("reading %s session %s: %w", s.kind, rec.ID, err)
	}
	return string(data), nil
}

// Get returns the session with its current content
func (s *EditSessionService) Get(ctx context.Context, id string) (*entities.EditSession, error) {
	rec, err := s.record(id)
	if err != nil {
		return nil, err
	}
	content, err := s.content(rec)
	if err != nil {
		return nil, err
	}
	return rec.session(content), nil
}

// Update replaces the working copy and bumps lastModified
func (s *EditSessionService) Update(ctx context.Context, id, content string) (*entities.EditSession, error) {
	rec, err := s.record(id)
	if err != nil {
		return nil, err
	}

	if err := s.deps.Store.Write(path.Join(s.dir, rec.TempFilename), []byte(content)); err != nil {
		return nil, fmt.Errorf("writing %s session %s: %w", s.kind, id, err)
	}
	rec.LastModified = s.deps.Clock.Now().UTC()
	if err := s.deps.writeJSON(s.recordPath(id), rec); err != nil {
		return nil, fmt.Errorf("writing %s session record %s: %w", s.kind, id, err)
	}
	return rec.session(content), nil
}

// Delete discards the session
func (s *EditSessionService) Delete(ctx context.Context, id string) error {
	rec, err := s.record(id)
	if err != nil {
		return err
	}
	return s.remove(rec)
}

func (s *EditSessionService) remove(rec sessionRecord) error {
	if err := s.deps.Store.Remove(path.Join(s.dir, rec.TempFilename)); err != nil && !errors.Is(err, entities.ErrNotFound) {
		return fmt.Errorf("removing %s session %s: %w", s.kind, rec.ID, err)
	}
	if err := s.deps.Store.Remove(s.recordPath(rec.ID)); err != nil && !errors.Is(err, entities.ErrNotFound) {
		return fmt.Errorf("removing %s session record %s: %w", s.kind, rec.ID, err)
	}
	return nil
}

// Commit writes the working copy over courses/<courseId>/<kind>/<originalFilename>
// and removes the session
func (s *EditSessionService) Commit(ctx context.Context, id string) error {
	rec, err := s.record(id)
	if err != nil {
		return err
	}
	content, err := s.content(rec)
	if err != nil {
		return err
	}
	if err := requireCourse(s.deps.Store, rec.CourseID); err != nil {
		return err
	}
	if err := checkSegment("filename", rec.OriginalFilename); err != nil {
		return err
	}

	if err := s.deps.Store.Write(coursePath(rec.CourseID, string(s.kind), rec.OriginalFilename), []byte(content)); err != nil {
		return fmt.Errorf("committing %s session %s: %w", s.kind, id, err)
	}
	if err := s.remove(rec); err != nil {
		return err
	}

	s.deps.Logger.Success("committed %s/%s/%s", rec.CourseID, s.kind, rec.OriginalFilename)
	return nil
}

// PurgeExpired removes sessions whose lastModified is older than the TTL
// and returns how many were removed
func (s *EditSessionService) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	entries, err := s.deps.Store.List(s.dir)
	if errors.Is(err, entities.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("listing %s sessions: %w", s.kind, err)
	}

	purged := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return purged, err
		}
		if entry.IsDir || path.Ext(entry.Name) != ".json" {
			continue
		}

		rec, err := s.record(strings.TrimSuffix(entry.Name, ".json"))
		if err != nil {
			s.deps.Logger.Warn("skipping %s session %s: %v", s.kind, entry.Name, err)
			continue
		}
		if !rec.session("").Expired(now, s.ttl) {
			continue
		}
		if err := s.remove(rec); err != nil {
			s.deps.Logger.Warn("purging %s session %s: %v", s.kind, rec.ID, err)
			continue
		}
		purged++
	}

	if purged > 0 {
		s.deps.Metrics.IncSessionsPurged(string(s.kind), purged)
		s.deps.Logger.Info("purged %d expired %s sessions", purged, s.kind)
	}
	return purged, nil
}

var _ ports.EditSessionService = (*EditSessionService)(nil)
