package qrtokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type db interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores tokens in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("qrtokens: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db db) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const tokenColumns = `id, token, qr_type, registration_url, expires_at, usage_count, used, note, created_at`

// Create stores a token.
func (r *PostgresRepository) Create(ctx context.Context, t *QRToken) error {
	query := `
		INSERT INTO qr_tokens (id, token, qr_type, registration_url, expires_at, usage_count, used, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := r.db.Exec(ctx, query,
		t.ID, t.Token, t.Type, t.RegistrationURL, t.ExpiresAt, t.UsageCount, t.Used, t.Note, t.CreatedAt,
	); err != nil {
		return fmt.Errorf("qrtokens: insert failed: %w", err)
	}
	return nil
}

// GetByID retrieves a token by its row ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*QRToken, error) {
	return r.getBy(ctx, "id", id)
}

// GetByToken retrieves a token by its value.
func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*QRToken, error) {
	return r.getBy(ctx, "token", token)
}

func (r *PostgresRepository) getBy(ctx context.Context, column, value string) (*QRToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM qr_tokens WHERE ` + column + ` = $1`
	t, err := scanToken(r.db.QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("qrtokens: select failed: %w", err)
	}
	return t, nil
}

// List returns all tokens, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*QRToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM qr_tokens ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("qrtokens: list failed: %w", err)
	}
	defer rows.Close()

	var out []*QRToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("qrtokens: scan failed: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Consume records one use with the variant rules applied in a single
// conditional update, so concurrent consumers of a single-use token
// cannot both win.
func (r *PostgresRepository) Consume(ctx context.Context, token string, now time.Time) (*QRToken, error) {
	query := `
		UPDATE qr_tokens
		SET usage_count = usage_count + 1,
			used = CASE WHEN qr_type = 'single_use' THEN TRUE ELSE used END
		WHERE token = $1
			AND (expires_at IS NULL OR expires_at > $2)
			AND NOT (qr_type = 'single_use' AND used)
		RETURNING ` + tokenColumns
	t, err := scanToken(r.db.QueryRow(ctx, query, token, now))
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("qrtokens: consume failed: %w", err)
	}

	// The guarded update matched nothing; read the row to say why.
	existing, err := r.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if existing.Expired(now) {
		return nil, ErrTokenExpired
	}
	if existing.Type == TypeSingleUse && existing.Used {
		return nil, ErrTokenUsed
	}
	return nil, fmt.Errorf("qrtokens: consume failed for token %s", existing.ID)
}

// Release undoes one recorded use.
func (r *PostgresRepository) Release(ctx context.Context, token string) error {
	query := `
		UPDATE qr_tokens
		SET usage_count = GREATEST(usage_count - 1, 0),
			used = CASE WHEN qr_type = 'single_use' THEN FALSE ELSE used END
		WHERE token = $1
	`
	tag, err := r.db.Exec(ctx, query, token)
	if err != nil {
		return fmt.Errorf("qrtokens: release failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// Delete removes a token.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM qr_tokens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("qrtokens: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// DeleteExpired removes all tokens past expiry and reports how many.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM qr_tokens WHERE expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("qrtokens: cleanup failed: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanToken(row pgx.Row) (*QRToken, error) {
	var t QRToken
	if err := row.Scan(
		&t.ID, &t.Token, &t.Type, &t.RegistrationURL, &t.ExpiresAt,
		&t.UsageCount, &t.Used, &t.Note, &t.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}
