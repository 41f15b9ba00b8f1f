package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"bookapi/internal/model"
	"bookapi/internal/repository"
)

// SnapshotPostgres is a PostgreSQL implementation of repository.SnapshotRepository.
// Rows are only ever inserted; seq breaks ties between equal timestamps.
type SnapshotPostgres struct {
	db *sql.DB
}

// NewSnapshotPostgres creates a new SnapshotPostgres repository.
func NewSnapshotPostgres(db *sql.DB) *SnapshotPostgres {
	return &SnapshotPostgres{db: db}
}

var _ repository.SnapshotRepository = (*SnapshotPostgres)(nil)

const snapshotColumns = `id, target_type, target_id, committer_id, time, type, reason, value`

// Create appends a snapshot row.
func (r *SnapshotPostgres) Create(ctx context.Context, rec *model.SnapshotRecord) error {
	const q = `
		INSERT INTO snapshots (id, target_type, target_id, committer_id, time, type, reason, value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID,
		string(rec.TargetType),
		rec.TargetID,
		sql.NullString{String: rec.CommitterID, Valid: rec.CommitterID != ""},
		rec.Time,
		string(rec.Type),
		rec.Reason,
		nullableJSON(rec.Value),
	)
	return err
}

// FindByID fetches one snapshot of the target.
func (r *SnapshotPostgres) FindByID(ctx context.Context, targetType model.EntityType, targetID, id string) (*model.SnapshotRecord, error) {
	const q = `SELECT ` + snapshotColumns + ` FROM snapshots WHERE target_type = $1 AND target_id = $2 AND id = $3`

	rec, err := scanSnapshot(r.db.QueryRowContext(ctx, q, string(targetType), targetID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List returns a page of the target's snapshots in time order.
func (r *SnapshotPostgres) List(ctx context.Context, targetType model.EntityType, targetID string, pq repository.PageQuery, chronological bool) ([]model.SnapshotRecord, error) {
	const (
		qAsc = `SELECT ` + snapshotColumns + ` FROM snapshots WHERE target_type = $1 AND target_id = $2
			ORDER BY time ASC, seq ASC LIMIT $3 OFFSET $4`
		qDesc = `SELECT ` + snapshotColumns + ` FROM snapshots WHERE target_type = $1 AND target_id = $2
			ORDER BY time DESC, seq DESC LIMIT $3 OFFSET $4`
	)
	q := qDesc
	if chronological {
		q = qAsc
	}

	rows, err := r.db.QueryContext(ctx, q, string(targetType), targetID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.SnapshotRecord, 0)
	for rows.Next() {
		rec, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Latest returns the most recent snapshot of the target.
func (r *SnapshotPostgres) Latest(ctx context.Context, targetType model.EntityType, targetID string) (*model.SnapshotRecord, error) {
	const q = `SELECT ` + snapshotColumns + ` FROM snapshots WHERE target_type = $1 AND target_id = $2
		ORDER BY time DESC, seq DESC LIMIT 1`

	rec, err := scanSnapshot(r.db.QueryRowContext(ctx, q, string(targetType), targetID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*model.SnapshotRecord, error) {
	var (
		rec        model.SnapshotRecord
		targetType string
		typ        string
		committer  sql.NullString
		reason     sql.NullString
		value      []byte
	)
	if err := row.Scan(
		&rec.ID,
		&targetType,
		&rec.TargetID,
		&committer,
		&rec.Time,
		&typ,
		&reason,
		&value,
	); err != nil {
		return nil, err
	}
	rec.TargetType = model.EntityType(targetType)
	rec.Type = model.SnapshotType(typ)
	rec.CommitterID = committer.String
	rec.Reason = reason.String
	if value != nil {
		rec.Value = json.RawMessage(value)
	}
	return &rec, nil
}

func nullableJSON(v json.RawMessage) any {
	if v == nil {
		return nil
	}
	return []byte(v)
}
