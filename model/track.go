package model

import "time"

// Genre is the closed set of track classification tags.
type Genre string

const (
	GenreRock       Genre = "rock"
	GenrePop        Genre = "pop"
	GenreJazz       Genre = "jazz"
	GenreClassical  Genre = "classical"
	GenreElectronic Genre = "electronic"
	GenreHipHop     Genre = "hip-hop"
	GenreCountry    Genre = "country"
	GenreRB         Genre = "r-b"
	GenreMetal      Genre = "metal"
	GenreIndie      Genre = "indie"
	GenreOther      Genre = "other"
)

var genres = map[Genre]bool{
	GenreRock: true, GenrePop: true, GenreJazz: true, GenreClassical: true,
	GenreElectronic: true, GenreHipHop: true, GenreCountry: true,
	GenreRB: true, GenreMetal: true, GenreIndie: true, GenreOther: true,
}

// IsValid reports whether g is one of the known genres.
func (g Genre) IsValid() bool {
	return genres[g]
}

// Track represents one uploaded audio asset.
//
// Filename, URL and StreamingURL are derived together from a single
// storage operation and are never set independently of each other.
type Track struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist,omitempty"`
	Album        string    `json:"album,omitempty"`
	Filename     string    `json:"filename"`
	URL          string    `json:"url"`
	StreamingURL string    `json:"streamingUrl"`
	FileSize     uint64    `json:"fileSize"`
	MimeType     string    `json:"mimeType"`
	Duration     *int      `json:"duration,omitempty"` // Seconds
	IsPublic     bool      `json:"isPublic"`
	Description  string    `json:"description,omitempty"`
	Genre        Genre     `json:"genre,omitempty"`
	PlayCount    uint64    `json:"playCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
