package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sacolalabs/ideiad/internal/auth"
	"github.com/sacolalabs/ideiad/internal/embeddings"
)

const (
	// minSimilarity is the relevance floor for semantic search. Results
	// scoring below it are judged irrelevant and dropped.
	minSimilarity = 0.3

	// maxSearchResults caps both semantic and lexical search.
	maxSearchResults = 20
)

// Service is the note-facing API: ownership-scoped retrieval plus the note
// lifecycle.
type Service interface {
	// List returns all of the caller's notes, newest first.
	List(ctx context.Context, ident auth.Identity) ([]Note, error)

	// Get returns one of the caller's notes. ErrNotFound if absent or not
	// owned.
	Get(ctx context.Context, ident auth.Identity, id int64) (*Note, error)

	// Search ranks the caller's notes by relevance to query. With a
	// configured embedding provider it ranks by cosine similarity; without
	// one it falls back to case-insensitive substring matching with every
	// similarity reported as 0.0.
	Search(ctx context.Context, ident auth.Identity, query string) ([]SearchResult, error)

	// Create persists a new note owned by the caller, fingerprinting it
	// best-effort.
	Create(ctx context.Context, ident auth.Identity, in CreateInput) (*Note, error)

	// Update merges the supplied fields over the stored note and recomputes
	// the fingerprint best-effort from the merged text.
	Update(ctx context.Context, ident auth.Identity, id int64, in UpdateInput) (*Note, error)

	// Delete removes the caller's note. ErrNotFound if absent or not owned.
	Delete(ctx context.Context, ident auth.Identity, id int64) error
}

// service implements Service.
type service struct {
	store    RecordStore
	provider embeddings.Provider
	logger   *zap.Logger
}

// NewService creates the notes service.
func NewService(store RecordStore, provider embeddings.Provider, logger *zap.Logger) (Service, error) {
	if store == nil {
		return nil, errors.New("record store is required")
	}
	if provider == nil {
		return nil, errors.New("embedding provider is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		store:    store,
		provider: provider,
		logger:   logger,
	}, nil
}

func (s *service) List(ctx context.Context, ident auth.Identity) ([]Note, error) {
	if ident.UserID <= 0 {
		return nil, ErrInvalidOwner
	}
	found, err := s.store.FindNotes(ctx, ident.UserID)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	return found, nil
}

func (s *service) Get(ctx context.Context, ident auth.Identity, id int64) (*Note, error) {
	if ident.UserID <= 0 {
		return nil, ErrInvalidOwner
	}
	note, err := s.store.GetNote(ctx, id, ident.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting note: %w", err)
	}
	return note, nil
}

func (s *service) Search(ctx context.Context, ident auth.Identity, query string) ([]SearchResult, error) {
	if ident.UserID <= 0 {
		return nil, ErrInvalidOwner
	}

	if !s.provider.Available() {
		return s.lexicalSearch(ctx, ident.UserID, query)
	}

	// The provider was committed for this call: a failure from here on is
	// surfaced, never silently degraded to the lexical path.
	vector, err := s.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding search query: %w", err)
	}

	results, err := s.store.FindNotesByFingerprint(ctx, ident.UserID, vector, minSimilarity, maxSearchResults)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	return results, nil
}

// lexicalSearch is the degraded path when no embedding provider is
// configured. Every result carries the literal similarity 0.0.
func (s *service) lexicalSearch(ctx context.Context, ownerID int64, query string) ([]SearchResult, error) {
	found, err := s.store.FindNotesBySubstring(ctx, ownerID, query, maxSearchResults)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	results := make([]SearchResult, 0, len(found))
	for _, n := range found {
		results = append(results, SearchResult{
			ID:         n.ID,
			Title:      n.Title,
			Tag:        n.Tag,
			Body:       n.Body,
			CreatedAt:  n.CreatedAt,
			Similarity: 0.0,
		})
	}
	return results, nil
}

func (s *service) Create(ctx context.Context, ident auth.Identity, in CreateInput) (*Note, error) {
	if ident.UserID <= 0 {
		return nil, ErrInvalidOwner
	}
	if in.Title == "" || in.Body == "" {
		return nil, ErrInvalidInput
	}

	fingerprint := s.fingerprint(ctx, in.Title, in.Tag, in.Body)

	created, err := s.store.InsertNote(ctx, ident.UserID, in, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("inserting note: %w", err)
	}

	s.logger.Info("note created",
		zap.Int64("note_id", created.ID),
		zap.Int64("owner_id", ident.UserID),
		zap.Bool("fingerprinted", fingerprint != nil))
	return created, nil
}

func (s *service) Update(ctx context.Context, ident auth.Identity, id int64, in UpdateInput) (*Note, error) {
	if ident.UserID <= 0 {
		return nil, ErrInvalidOwner
	}

	existing, err := s.store.GetNote(ctx, id, ident.UserID)
	if err != nil {
		return nil, err
	}

	merged := CreateInput{
		Title: existing.Title,
		Tag:   existing.Tag,
		Body:  existing.Body,
	}
	if in.Title != nil {
		merged.Title = *in.Title
	}
	if in.Tag != nil {
		merged.Tag = in.Tag
	}
	if in.Body != nil {
		merged.Body = *in.Body
	}
	if merged.Title == "" || merged.Body == "" {
		return nil, ErrInvalidInput
	}

	// Best-effort: nil leaves the stored fingerprint untouched.
	fingerprint := s.fingerprint(ctx, merged.Title, merged.Tag, merged.Body)

	updated, err := s.store.UpdateNote(ctx, id, ident.UserID, merged, fingerprint)
	if err != nil {
		return nil, err
	}

	s.logger.Info("note updated",
		zap.Int64("note_id", id),
		zap.Int64("owner_id", ident.UserID),
		zap.Bool("refingerprinted", fingerprint != nil))
	return updated, nil
}

func (s *service) Delete(ctx context.Context, ident auth.Identity, id int64) error {
	if ident.UserID <= 0 {
		return ErrInvalidOwner
	}

	deleted, err := s.store.DeleteNote(ctx, id, ident.UserID)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}

	s.logger.Info("note deleted",
		zap.Int64("note_id", id),
		zap.Int64("owner_id", ident.UserID))
	return nil
}

// fingerprint computes the note embedding best-effort: an unavailable or
// failing provider yields nil and never fails the surrounding write.
func (s *service) fingerprint(ctx context.Context, title string, tag *string, body string) []float32 {
	if !s.provider.Available() {
		return nil
	}

	vector, err := s.provider.Embed(ctx, fingerprintText(title, tag, body))
	if err != nil {
		s.logger.Warn("fingerprint generation failed, persisting without it", zap.Error(err))
		return nil
	}
	return vector
}

// fingerprintText joins the embeddable note fields into the text the
// fingerprint is computed from.
func fingerprintText(title string, tag *string, body string) string {
	tagText := ""
	if tag != nil {
		tagText = *tag
	}
	return strings.TrimSpace(title + " " + tagText + " " + body)
}
