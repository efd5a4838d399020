package track

import (
	"context"
	"errors"
	"fmt"
	"io"

	"tipwave/cache"
	"tipwave/model"
	"tipwave/repository"
	"tipwave/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sentinel errors for the track service.
var (
	ErrAudioFileRequired = errors.New("audio file is required")
	ErrTitleRequired     = errors.New("track title is required")
	ErrTitleTooLong      = errors.New("track title exceeds 255 characters")
	ErrFieldTooLong      = errors.New("field exceeds 255 characters")
	ErrInvalidGenre      = errors.New("unknown genre")
	ErrNotFound          = errors.New("track not found")
)

const maxFieldLength = 255

// CreateParams is the client-supplied metadata for a new track.
// Machine-managed fields (filename, URLs, play count) have no place here;
// they are derived inside Create from the storage operation.
type CreateParams struct {
	Title       string      `json:"title"`
	Artist      string      `json:"artist"`
	Album       string      `json:"album"`
	Description string      `json:"description"`
	Genre       model.Genre `json:"genre"`
	Duration    *int        `json:"duration"`
	IsPublic    bool        `json:"isPublic"`
}

// Validate checks the metadata before any side effect is attempted.
func (p *CreateParams) Validate() error {
	if p.Title == "" {
		return ErrTitleRequired
	}
	if len(p.Title) > maxFieldLength {
		return ErrTitleTooLong
	}
	if len(p.Artist) > maxFieldLength || len(p.Album) > maxFieldLength {
		return ErrFieldTooLong
	}
	if p.Genre != "" && !p.Genre.IsValid() {
		return ErrInvalidGenre
	}
	return nil
}

// UpdateParams is a partial metadata update. Only non-nil fields are
// applied; the allow-list is the struct itself, so client input can
// never reach filename, URLs, play count, id or timestamps.
type UpdateParams struct {
	Title       *string      `json:"title"`
	Artist      *string      `json:"artist"`
	Album       *string      `json:"album"`
	Description *string      `json:"description"`
	Genre       *model.Genre `json:"genre"`
	Duration    *int         `json:"duration"`
	IsPublic    *bool        `json:"isPublic"`
}

// Service keeps the blob store and the track records in lockstep.
type Service struct {
	repo  repository.TrackRepository
	store storage.FileStore
	cache *cache.TrackCache
	log   *zap.Logger
}

// NewService wires the track service with its collaborators. cache may
// be nil when Redis is not available.
func NewService(repo repository.TrackRepository, store storage.FileStore, trackCache *cache.TrackCache, log *zap.Logger) *Service {
	return &Service{
		repo:  repo,
		store: store,
		cache: trackCache,
		log:   log,
	}
}

// Create validates the input, persists the blob, derives file metadata
// and creates the track record. Storage strictly precedes the record
// insert; a failed insert leaves the already-stored blob behind, which
// is logged distinctly as a leaked resource.
func (s *Service) Create(ctx context.Context, params CreateParams, file io.Reader, originalName, contentType string, size int64) (*model.Track, error) {
	if file == nil || size == 0 {
		return nil, ErrAudioFileRequired
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	saved, err := s.store.SaveFile(ctx, originalName, contentType, file, size)
	if err != nil {
		s.log.Error("failed to store audio file",
			zap.String("originalName", originalName),
			zap.Error(err))
		return nil, fmt.Errorf("failed to store audio file: %w", err)
	}

	info, err := s.store.GetFileInfo(ctx, saved.Filename)
	if err != nil {
		s.log.Error("failed to read stored file info",
			zap.String("filename", saved.Filename),
			zap.Error(err))
		return nil, fmt.Errorf("failed to read file info for %s: %w", saved.Filename, err)
	}

	t := &model.Track{
		ID:           uuid.NewString(),
		Title:        params.Title,
		Artist:       params.Artist,
		Album:        params.Album,
		Filename:     saved.Filename,
		URL:          saved.URL,
		StreamingURL: s.store.GetStreamingURL(saved.Filename),
		FileSize:     uint64(info.Size),
		MimeType:     info.MimeType,
		Duration:     params.Duration,
		IsPublic:     params.IsPublic,
		Description:  params.Description,
		Genre:        params.Genre,
		PlayCount:    0,
	}

	if err := s.repo.Create(t); err != nil {
		// The blob is already stored with no record pointing at it.
		// No rollback here; the leak is surfaced loudly instead.
		s.log.Error("leaked blob: stored file has no track record",
			zap.String("filename", saved.Filename),
			zap.String("trackId", t.ID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create track record: %w", err)
	}

	s.invalidateFeed(ctx)
	s.log.Info("track created",
		zap.String("trackId", t.ID),
		zap.String("title", t.Title),
		zap.String("filename", t.Filename))

	return t, nil
}

// FindAll returns every track, newest first.
func (s *Service) FindAll() ([]*model.Track, error) {
	return s.repo.FindAll()
}

// FindPublic returns only public tracks, newest first. The listing is
// served from the Redis feed cache when warm.
func (s *Service) FindPublic(ctx context.Context) ([]*model.Track, error) {
	if s.cache != nil {
		if tracks, err := s.cache.GetPublicFeed(ctx); err == nil && tracks != nil {
			return tracks, nil
		}
	}

	tracks, err := s.repo.FindPublic()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetPublicFeed(ctx, tracks); err != nil {
			s.log.Warn("failed to cache public feed", zap.Error(err))
		}
	}
	return tracks, nil
}

// FindOne returns the track with the given id or ErrNotFound. Every
// id-based operation routes through here so the not-found behavior is
// uniform.
func (s *Service) FindOne(id string) (*model.Track, error) {
	t, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

// Update merges the non-nil fields of params onto the existing record.
func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (*model.Track, error) {
	t, err := s.FindOne(id)
	if err != nil {
		return nil, err
	}

	if params.Title != nil {
		if *params.Title == "" {
			return nil, ErrTitleRequired
		}
		if len(*params.Title) > maxFieldLength {
			return nil, ErrTitleTooLong
		}
		t.Title = *params.Title
	}
	if params.Artist != nil {
		if len(*params.Artist) > maxFieldLength {
			return nil, ErrFieldTooLong
		}
		t.Artist = *params.Artist
	}
	if params.Album != nil {
		if len(*params.Album) > maxFieldLength {
			return nil, ErrFieldTooLong
		}
		t.Album = *params.Album
	}
	if params.Description != nil {
		t.Description = *params.Description
	}
	if params.Genre != nil {
		if *params.Genre != "" && !params.Genre.IsValid() {
			return nil, ErrInvalidGenre
		}
		t.Genre = *params.Genre
	}
	if params.Duration != nil {
		t.Duration = params.Duration
	}
	if params.IsPublic != nil {
		t.IsPublic = *params.IsPublic
	}

	if err := s.repo.Update(t); err != nil {
		s.log.Error("failed to update track", zap.String("trackId", id), zap.Error(err))
		return nil, err
	}

	s.invalidateFeed(ctx)
	s.log.Info("track updated", zap.String("trackId", id))
	return t, nil
}

// Remove deletes the blob, then the record. The blob delete comes first:
// if it fails the record survives and the operation fails closed, so a
// record is never believed deleted while its blob still exists untracked.
func (s *Service) Remove(ctx context.Context, id string) error {
	t, err := s.FindOne(id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteFile(ctx, t.Filename); err != nil {
		s.log.Error("failed to delete stored file, keeping track record",
			zap.String("trackId", id),
			zap.String("filename", t.Filename),
			zap.Error(err))
		return fmt.Errorf("failed to delete file %s: %w", t.Filename, err)
	}

	if err := s.repo.Delete(id); err != nil {
		// The blob is gone but the record survived. Not compensated;
		// see DESIGN.md.
		s.log.Error("orphaned record: blob deleted but record removal failed",
			zap.String("trackId", id),
			zap.String("filename", t.Filename),
			zap.Error(err))
		return fmt.Errorf("failed to delete track record %s: %w", id, err)
	}

	s.invalidateFeed(ctx)
	s.log.Info("track deleted", zap.String("trackId", id), zap.String("filename", t.Filename))
	return nil
}

// IncrementPlayCount adds exactly one play. The increment happens at the
// persistence layer, so concurrent plays on the same track never lose
// updates.
func (s *Service) IncrementPlayCount(id string) (*model.Track, error) {
	ok, err := s.repo.IncrementPlayCount(id)
	if err != nil {
		s.log.Error("failed to increment play count", zap.String("trackId", id), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return s.FindOne(id)
}

// FindByArtist returns tracks with an exact artist match, newest first.
func (s *Service) FindByArtist(artist string) ([]*model.Track, error) {
	return s.repo.FindByArtist(artist)
}

// FindByGenre returns tracks with the given genre, newest first.
func (s *Service) FindByGenre(genre model.Genre) ([]*model.Track, error) {
	if !genre.IsValid() {
		return nil, ErrInvalidGenre
	}
	return s.repo.FindByGenre(genre)
}

// Search matches query as a case-insensitive substring of title, artist
// or album, newest first. Empty queries are rejected at the boundary
// before reaching this method.
func (s *Service) Search(query string) ([]*model.Track, error) {
	return s.repo.Search(query)
}

func (s *Service) invalidateFeed(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePublicFeed(ctx); err != nil {
		s.log.Warn("failed to invalidate public feed cache", zap.Error(err))
	}
}
