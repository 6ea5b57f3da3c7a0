package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/sacolalabs/ideiad/internal/notes"
)

// noteColumns is the projection shared by every note query.
const noteColumns = `id, usuario_id, titulo, tag, ideia, embedding IS NOT NULL, created_at, updated_at`

// FindNotes returns all notes of the owner, newest first.
func (s *Store) FindNotes(ctx context.Context, ownerID int64) ([]notes.Note, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+noteColumns+`
		FROM ideias
		WHERE usuario_id = $1
		ORDER BY created_at DESC, id ASC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	return scanNotes(rows)
}

// FindNotesBySubstring is the lexical fallback query: case-insensitive
// substring match on title, tag or body, newest first, capped.
func (s *Store) FindNotesBySubstring(ctx context.Context, ownerID int64, term string, limit int) ([]notes.Note, error) {
	pattern := "%" + term + "%"
	rows, err := s.pool.Query(ctx, `
		SELECT `+noteColumns+`
		FROM ideias
		WHERE usuario_id = $1
		  AND (titulo ILIKE $2 OR tag ILIKE $2 OR ideia ILIKE $2)
		ORDER BY created_at DESC, id ASC
		LIMIT $3`,
		ownerID, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("querying notes by substring: %w", err)
	}
	defer rows.Close()

	return scanNotes(rows)
}

// FindNotesByFingerprint ranks the owner's fingerprinted notes by cosine
// similarity to the query vector. The floor and cap are applied here, in
// SQL; notes without a fingerprint never appear.
func (s *Store) FindNotesByFingerprint(ctx context.Context, ownerID int64, query []float32, minSimilarity float64, limit int) ([]notes.SearchResult, error) {
	vec := pgvector.NewVector(query)
	rows, err := s.pool.Query(ctx, `
		SELECT id, titulo, tag, ideia, created_at,
		       1 - (embedding <=> $2) AS similarity
		FROM ideias
		WHERE usuario_id = $1
		  AND embedding IS NOT NULL
		  AND 1 - (embedding <=> $2) >= $3
		ORDER BY embedding <=> $2 ASC, id ASC
		LIMIT $4`,
		ownerID, vec, minSimilarity, limit)
	if err != nil {
		return nil, fmt.Errorf("querying notes by fingerprint: %w", err)
	}
	defer rows.Close()

	var results []notes.SearchResult
	for rows.Next() {
		var r notes.SearchResult
		if err := rows.Scan(&r.ID, &r.Title, &r.Tag, &r.Body, &r.CreatedAt, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading search results: %w", err)
	}
	return results, nil
}

// InsertNote persists a new note. A nil fingerprint inserts a null embedding.
func (s *Store) InsertNote(ctx context.Context, ownerID int64, in notes.CreateInput, fingerprint []float32) (*notes.Note, error) {
	if ownerID <= 0 {
		return nil, notes.ErrInvalidOwner
	}

	var row pgx.Row
	if fingerprint != nil {
		row = s.pool.QueryRow(ctx, `
			INSERT INTO ideias (usuario_id, titulo, tag, ideia, embedding)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+noteColumns,
			ownerID, in.Title, in.Tag, in.Body, pgvector.NewVector(fingerprint))
	} else {
		row = s.pool.QueryRow(ctx, `
			INSERT INTO ideias (usuario_id, titulo, tag, ideia)
			VALUES ($1, $2, $3, $4)
			RETURNING `+noteColumns,
			ownerID, in.Title, in.Tag, in.Body)
	}

	note, err := scanNote(row)
	if err != nil {
		return nil, fmt.Errorf("inserting note: %w", err)
	}
	return note, nil
}

// GetNote loads a note by id and owner.
func (s *Store) GetNote(ctx context.Context, id, ownerID int64) (*notes.Note, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+noteColumns+`
		FROM ideias
		WHERE id = $1 AND usuario_id = $2`,
		id, ownerID)

	note, err := scanNote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notes.ErrNotFound
		}
		return nil, fmt.Errorf("loading note: %w", err)
	}
	return note, nil
}

// UpdateNote writes the merged fields. The owner stays in the write
// predicate even though ownership is immutable. A nil fingerprint leaves the
// stored embedding untouched.
func (s *Store) UpdateNote(ctx context.Context, id, ownerID int64, merged notes.CreateInput, fingerprint []float32) (*notes.Note, error) {
	var row pgx.Row
	if fingerprint != nil {
		row = s.pool.QueryRow(ctx, `
			UPDATE ideias
			SET titulo = $3, tag = $4, ideia = $5, embedding = $6, updated_at = now()
			WHERE id = $1 AND usuario_id = $2
			RETURNING `+noteColumns,
			id, ownerID, merged.Title, merged.Tag, merged.Body, pgvector.NewVector(fingerprint))
	} else {
		row = s.pool.QueryRow(ctx, `
			UPDATE ideias
			SET titulo = $3, tag = $4, ideia = $5, updated_at = now()
			WHERE id = $1 AND usuario_id = $2
			RETURNING `+noteColumns,
			id, ownerID, merged.Title, merged.Tag, merged.Body)
	}

	note, err := scanNote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notes.ErrNotFound
		}
		return nil, fmt.Errorf("updating note: %w", err)
	}
	return note, nil
}

// DeleteNote removes a note by id and owner, reporting whether a row was
// deleted.
func (s *Store) DeleteNote(ctx context.Context, id, ownerID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM ideias
		WHERE id = $1 AND usuario_id = $2`,
		id, ownerID)
	if err != nil {
		return false, fmt.Errorf("deleting note: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanNote(row pgx.Row) (*notes.Note, error) {
	var n notes.Note
	err := row.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Tag, &n.Body,
		&n.HasFingerprint, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func scanNotes(rows pgx.Rows) ([]notes.Note, error) {
	var out []notes.Note
	for rows.Next() {
		var n notes.Note
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Tag, &n.Body,
			&n.HasFingerprint, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading notes: %w", err)
	}
	return out, nil
}
