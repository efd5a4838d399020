package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"tipwave/db"
	"tipwave/model"
)

// TrackRepository defines the interface for track data operations.
// All listing methods return tracks ordered by creation time, newest
// first; feed consumers depend on that ordering.
type TrackRepository interface {
	Create(track *model.Track) error
	FindByID(id string) (*model.Track, error)
	FindAll() ([]*model.Track, error)
	FindPublic() ([]*model.Track, error)
	FindByArtist(artist string) ([]*model.Track, error)
	FindByGenre(genre model.Genre) ([]*model.Track, error)
	Search(query string) ([]*model.Track, error)
	Update(track *model.Track) error
	Delete(id string) error
	IncrementPlayCount(id string) (bool, error)
}

// mysqlTrackRepository implements TrackRepository for MySQL.
type mysqlTrackRepository struct {
	DB *sql.DB
}

// NewMySQLTrackRepository creates a new instance of mysqlTrackRepository.
func NewMySQLTrackRepository() TrackRepository {
	return &mysqlTrackRepository{DB: db.DB}
}

const trackColumns = `id, title, artist, album, filename, url, streaming_url, file_size, mime_type, duration, is_public, description, genre, play_count, created_at, updated_at`

// Create adds a new track to the database.
func (r *mysqlTrackRepository) Create(track *model.Track) error {
	query := `INSERT INTO tracks (id, title, artist, album, filename, url, streaming_url, file_size, mime_type, duration, is_public, description, genre, play_count, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for Create: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	track.CreatedAt = now
	track.UpdatedAt = now

	_, err = stmt.Exec(track.ID, track.Title, track.Artist, track.Album,
		track.Filename, track.URL, track.StreamingURL, track.FileSize,
		track.MimeType, nullableInt(track.Duration), track.IsPublic,
		track.Description, string(track.Genre), track.PlayCount, now, now)
	if err != nil {
		return fmt.Errorf("failed to execute Create for track %s: %w", track.ID, err)
	}
	return nil
}

// FindByID retrieves a track by its ID. Returns (nil, nil) when no track
// with that ID exists.
func (r *mysqlTrackRepository) FindByID(id string) (*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`
	row := r.DB.QueryRow(query, id)

	track, err := scanTrack(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Track not found
		}
		return nil, fmt.Errorf("failed to scan track by ID %s: %w", id, err)
	}
	return track, nil
}

// FindAll retrieves all tracks, newest first.
func (r *mysqlTrackRepository) FindAll() ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks ORDER BY created_at DESC`
	return r.queryTracks(query)
}

// FindPublic retrieves only tracks whose visibility flag is set, newest first.
func (r *mysqlTrackRepository) FindPublic() ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE is_public = TRUE ORDER BY created_at DESC`
	return r.queryTracks(query)
}

// FindByArtist retrieves tracks with an exact artist match, newest first.
func (r *mysqlTrackRepository) FindByArtist(artist string) ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE artist = ? ORDER BY created_at DESC`
	return r.queryTracks(query, artist)
}

// FindByGenre retrieves tracks with an exact genre match, newest first.
func (r *mysqlTrackRepository) FindByGenre(genre model.Genre) ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE genre = ? ORDER BY created_at DESC`
	return r.queryTracks(query, string(genre))
}

// Search matches the query as a case-insensitive substring of title,
// artist or album, newest first.
func (r *mysqlTrackRepository) Search(query string) ([]*model.Track, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	q := `SELECT ` + trackColumns + ` FROM tracks
	       WHERE LOWER(title) LIKE ? OR LOWER(artist) LIKE ? OR LOWER(album) LIKE ?
	       ORDER BY created_at DESC`
	return r.queryTracks(q, pattern, pattern, pattern)
}

// Update persists the mutable metadata fields of the given track.
// Machine-managed columns (filename, url, streaming_url, play_count)
// are deliberately absent from the statement.
func (r *mysqlTrackRepository) Update(track *model.Track) error {
	query := `UPDATE tracks SET title = ?, artist = ?, album = ?, duration = ?, is_public = ?, description = ?, genre = ?, updated_at = ? WHERE id = ?`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for Update: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	_, err = stmt.Exec(track.Title, track.Artist, track.Album,
		nullableInt(track.Duration), track.IsPublic, track.Description,
		string(track.Genre), now, track.ID)
	if err != nil {
		return fmt.Errorf("failed to execute Update for track %s: %w", track.ID, err)
	}
	track.UpdatedAt = now
	return nil
}

// Delete removes the track record with the given ID.
func (r *mysqlTrackRepository) Delete(id string) error {
	stmt, err := r.DB.Prepare(`DELETE FROM tracks WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for Delete: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(id); err != nil {
		return fmt.Errorf("failed to execute Delete for track %s: %w", id, err)
	}
	return nil
}

// IncrementPlayCount adds exactly one play to the track, atomically at
// the SQL level so concurrent plays can not lose updates. Returns false
// when no track with that ID exists.
func (r *mysqlTrackRepository) IncrementPlayCount(id string) (bool, error) {
	res, err := r.DB.Exec(`UPDATE tracks SET play_count = play_count + 1, updated_at = ? WHERE id = ?`, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to increment play count for track %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected for track %s: %w", id, err)
	}
	return affected > 0, nil
}

func (r *mysqlTrackRepository) queryTracks(query string, args ...interface{}) ([]*model.Track, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := make([]*model.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		tracks = append(tracks, track)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}

	return tracks, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTrack(s scanner) (*model.Track, error) {
	track := &model.Track{}
	var duration sql.NullInt64
	var genre string
	err := s.Scan(&track.ID, &track.Title, &track.Artist, &track.Album,
		&track.Filename, &track.URL, &track.StreamingURL, &track.FileSize,
		&track.MimeType, &duration, &track.IsPublic, &track.Description,
		&genre, &track.PlayCount, &track.CreatedAt, &track.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if duration.Valid {
		d := int(duration.Int64)
		track.Duration = &d
	}
	track.Genre = model.Genre(genre)
	return track, nil
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
