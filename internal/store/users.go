package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sacolalabs/ideiad/internal/auth"
)

const userColumns = `id, email, nome, foto_url, metodo_auth, role, ativo, senha_hash`

// uniqueViolation is the Postgres error code for unique constraint failures.
const uniqueViolation = "23505"

// FindUserByEmail looks up a user by email.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM usuarios
		WHERE email = $1`,
		email)
	return scanUser(row)
}

// FindUserByID looks up a user by id.
func (s *Store) FindUserByID(ctx context.Context, id int64) (*auth.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM usuarios
		WHERE id = $1`,
		id)
	return scanUser(row)
}

// CreateUser inserts an email/password user and its free-plan subscription in
// one transaction; a failure rolls the whole registration back.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string, name *string) (*auth.User, error) {
	var user *auth.User
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO usuarios (email, senha_hash, nome, metodo_auth, role)
			VALUES ($1, $2, $3, 'email', 'user')
			RETURNING `+userColumns,
			email, passwordHash, name)

		var err error
		user, err = scanUser(row)
		if err != nil {
			return err
		}
		return s.ensureSubscription(ctx, tx, user.ID)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, auth.ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// UpsertGoogleUser creates or refreshes a Google-backed user, matched by
// google id or email, and guarantees it has an active subscription.
func (s *Store) UpsertGoogleUser(ctx context.Context, profile auth.GoogleProfile) (*auth.User, error) {
	var user *auth.User
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `
			SELECT id FROM usuarios
			WHERE google_id = $1 OR email = $2
			LIMIT 1`,
			profile.GoogleID, profile.Email).Scan(&id)

		switch {
		case err == nil:
			_, err = tx.Exec(ctx, `
				UPDATE usuarios
				SET google_id = $2,
				    nome = COALESCE($3, nome),
				    foto_url = COALESCE($4, foto_url),
				    metodo_auth = 'google',
				    updated_at = now()
				WHERE id = $1`,
				id, profile.GoogleID, profile.Name, profile.PhotoURL)
			if err != nil {
				return err
			}
		case errors.Is(err, pgx.ErrNoRows):
			err = tx.QueryRow(ctx, `
				INSERT INTO usuarios (email, nome, foto_url, google_id, metodo_auth, role)
				VALUES ($1, $2, $3, $4, 'google', 'user')
				RETURNING id`,
				profile.Email, profile.Name, profile.PhotoURL, profile.GoogleID).Scan(&id)
			if err != nil {
				return err
			}
		default:
			return err
		}

		if err := s.ensureSubscription(ctx, tx, id); err != nil {
			return err
		}

		row := tx.QueryRow(ctx, `
			SELECT `+userColumns+`
			FROM usuarios
			WHERE id = $1`,
			id)
		user, err = scanUser(row)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("upserting google user: %w", err)
	}
	return user, nil
}

// ensureSubscription inserts the free plan if the user has no active one.
func (s *Store) ensureSubscription(ctx context.Context, tx pgx.Tx, userID int64) error {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM assinaturas
			WHERE usuario_id = $1 AND status = 'ativa'
		)`,
		userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking subscription: %w", err)
	}
	if exists {
		return nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO assinaturas (usuario_id, plano, status, limite_buscas, limite_embeddings)
		VALUES ($1, 'free', 'ativa', 10, 10)`,
		userID)
	if err != nil {
		return fmt.Errorf("creating subscription: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PhotoURL, &u.AuthMethod,
		&u.Role, &u.Active, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
