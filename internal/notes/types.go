// Package notes implements the idea-notebook core: ownership-scoped listing
// and search, and the note lifecycle with its fingerprinting side effect.
//
// Every operation takes the verified caller identity, and every result is
// filtered by it. A note is only ever visible to, mutable by, or deletable by
// its owner; absence and non-ownership are indistinguishable (both are
// ErrNotFound).
package notes

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for note operations.
var (
	// ErrNotFound covers both "no such note" and "note owned by someone
	// else"; the caller must not be able to tell them apart.
	ErrNotFound = errors.New("note not found")

	// ErrInvalidOwner indicates a write attempted without a positive owner
	// id. The write is aborted before it reaches the store.
	ErrInvalidOwner = errors.New("owner id must be a positive integer")

	// ErrInvalidInput indicates missing required fields.
	ErrInvalidInput = errors.New("title and body are required")
)

// Note is a single idea owned by exactly one user.
type Note struct {
	ID      int64   `json:"id"`
	OwnerID int64   `json:"-"`
	Title   string  `json:"titulo"`
	Tag     *string `json:"tag"`
	Body    string  `json:"ideia"`

	// HasFingerprint reports whether an embedding is stored for this note.
	// Notes without a fingerprint are invisible to semantic search.
	HasFingerprint bool `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchResult is a note projection plus its similarity to the query.
// Similarity is in [0,1] on the semantic path and the literal 0.0 on the
// lexical fallback path, where no quantitative score exists.
type SearchResult struct {
	ID         int64     `json:"id"`
	Title      string    `json:"titulo"`
	Tag        *string   `json:"tag"`
	Body       string    `json:"ideia"`
	CreatedAt  time.Time `json:"data"`
	Similarity float64   `json:"similarity"`
}

// CreateInput carries the caller-supplied fields of a new note.
type CreateInput struct {
	Title string  `json:"titulo"`
	Tag   *string `json:"tag"`
	Body  string  `json:"ideia"`
}

// UpdateInput carries a partial update; nil fields keep their stored value.
type UpdateInput struct {
	Title *string `json:"titulo"`
	Tag   *string `json:"tag"`
	Body  *string `json:"ideia"`
}

// RecordStore is the relational-store surface the core depends on.
// Implemented by internal/store against Postgres. Every owner-scoped
// operation carries the owner in its predicate; the store owns ordering,
// the similarity floor and the result cap for the query shapes below.
type RecordStore interface {
	// FindNotes returns all notes of the owner, newest first.
	FindNotes(ctx context.Context, ownerID int64) ([]Note, error)

	// FindNotesBySubstring returns the owner's notes whose title, tag or
	// body contains term case-insensitively, newest first, capped at limit.
	FindNotesBySubstring(ctx context.Context, ownerID int64, term string, limit int) ([]Note, error)

	// FindNotesByFingerprint ranks the owner's fingerprinted notes by cosine
	// similarity to query, keeping those at or above minSimilarity, ordered
	// by similarity descending, capped at limit.
	FindNotesByFingerprint(ctx context.Context, ownerID int64, query []float32, minSimilarity float64, limit int) ([]SearchResult, error)

	// InsertNote persists a new note. fingerprint may be nil.
	InsertNote(ctx context.Context, ownerID int64, in CreateInput, fingerprint []float32) (*Note, error)

	// GetNote loads a note by id and owner; ErrNotFound otherwise.
	GetNote(ctx context.Context, id, ownerID int64) (*Note, error)

	// UpdateNote writes merged fields with an id-and-owner predicate. A nil
	// fingerprint leaves the stored fingerprint untouched. ErrNotFound when
	// no row matches.
	UpdateNote(ctx context.Context, id, ownerID int64, merged CreateInput, fingerprint []float32) (*Note, error)

	// DeleteNote removes a note by id and owner, reporting whether a row
	// was deleted.
	DeleteNote(ctx context.Context, id, ownerID int64) (bool, error)
}
