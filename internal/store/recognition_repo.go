// Package store keeps a Postgres-backed log of recognition results, keyed by
// image hash so the same picture is never paid for twice.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"receipt-recognizer/internal/receipt"
)

var ErrNotFound = sql.ErrNoRows

type RecognitionRepo struct{ DB *sql.DB }

func NewRecognitionRepo(db *sql.DB) *RecognitionRepo { return &RecognitionRepo{DB: db} }

type RecognitionRow struct {
	ID        string
	CreatedAt time.Time
	ChatID    int64
	ImageHash string
	Engine    string
	Fields    receipt.Fields
	Valid     bool
}

const schema = `
create table if not exists recognitions (
    id          uuid primary key,
    created_at  timestamptz not null default now(),
    chat_id     bigint not null default 0,
    image_hash  text not null,
    engine      text not null,
    fields_json jsonb not null,
    valid       boolean not null default false,
    unique (image_hash, engine)
)`

func (r *RecognitionRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schema)
	return err
}

// FindByHash returns the stored result for (image_hash, engine). With
// maxAge > 0 stale rows count as not found.
func (r *RecognitionRepo) FindByHash(ctx context.Context, imageHash, engine string, maxAge time.Duration) (*RecognitionRow, error) {
	const q = `
select id, created_at, chat_id, image_hash, engine, fields_json, valid
from recognitions
where image_hash = $1 and engine = $2`

	var (
		row RecognitionRow
		js  []byte
	)
	err := r.DB.QueryRowContext(ctx, q, imageHash, engine).Scan(
		&row.ID, &row.CreatedAt, &row.ChatID, &row.ImageHash, &row.Engine, &js, &row.Valid,
	)
	if err != nil {
		return nil, err
	}
	if maxAge > 0 && time.Since(row.CreatedAt) > maxAge {
		return nil, ErrNotFound
	}
	if err := json.Unmarshal(js, &row.Fields); err != nil {
		// битый JSON считаем отсутствующим
		return nil, ErrNotFound
	}
	return &row, nil
}

// Upsert stores a recognition result, replacing any previous run over the
// same image with the same engine.
func (r *RecognitionRepo) Upsert(ctx context.Context, chatID int64, imageHash, engine string, fields receipt.Fields, valid bool) error {
	js, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	const q = `
insert into recognitions (id, chat_id, image_hash, engine, fields_json, valid)
values ($1, $2, $3, $4, $5, $6)
on conflict (image_hash, engine) do update set
    chat_id     = excluded.chat_id,
    fields_json = excluded.fields_json,
    valid       = excluded.valid,
    created_at  = now()`

	_, err = r.DB.ExecContext(ctx, q, uuid.NewString(), chatID, imageHash, engine, js, valid)
	return err
}
