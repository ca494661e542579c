package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	domain "github.com/bryanwahyu/placard-watch/internal/domain/verdict"
)

// ViolationRepository is the Postgres variant of the violation store.
// Append-only, same contract as the MySQL repository.
type ViolationRepository struct {
	db *sql.DB
}

func NewViolationRepository(db *sql.DB) *ViolationRepository {
	return &ViolationRepository{db: db}
}

func (r *ViolationRepository) Commit(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO violations
(id, committed_at, image_url, is_violation, confidence,
 license_plate, location, reason, raw_text, verified_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10);
`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.Timestamp, rec.ImageURL, rec.IsViolation, rec.Confidence,
		rec.LicensePlate, rec.Location, rec.Reason, rec.RawText, rec.VerifiedBy,
	)
	if err != nil {
		var pe *pq.Error
		if errors.As(err, &pe) && pe.Code == "23505" {
			return domain.ErrDuplicateID
		}
		return fmt.Errorf("%w: %v", domain.ErrWriteFailure, err)
	}
	return nil
}

// List never fails; an unreadable backing store reads as empty.
func (r *ViolationRepository) List(ctx context.Context) ([]*domain.Record, error) {
	const q = `
SELECT id, committed_at, image_url, is_violation, confidence,
       license_plate, location, reason, raw_text, verified_by
FROM violations
ORDER BY committed_at DESC, id DESC;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, nil
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, nil
		}
		out = append(out, rec)
	}
	if rows.Err() != nil {
		return nil, nil
	}
	return out, nil
}

func (r *ViolationRepository) Get(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	const q = `
SELECT id, committed_at, image_url, is_violation, confidence,
       license_plate, location, reason, raw_text, verified_by
FROM violations
WHERE id=$1 LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var rec domain.Record
	var ts time.Time
	if err := row.Scan(
		&rec.ID, &ts, &rec.ImageURL, &rec.IsViolation, &rec.Confidence,
		&rec.LicensePlate, &rec.Location, &rec.Reason, &rec.RawText, &rec.VerifiedBy,
	); err != nil {
		return nil, err
	}
	rec.Timestamp = ts
	return &rec, nil
}

var _ domain.Repository = (*ViolationRepository)(nil)
