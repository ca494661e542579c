package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	domain "github.com/bryanwahyu/placard-watch/internal/domain/verdict"
)

// ViolationRepository persists committed records in MySQL, for deployments
// where the admin views are shared across hosts. Inserts are append-only:
// a duplicate id is rejected by the primary key, never upserted.
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
VALUES (?,?,?,?,?,?,?,?,?,?);
`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.Timestamp, rec.ImageURL, rec.IsViolation, rec.Confidence,
		rec.LicensePlate, rec.Location, rec.Reason, rec.RawText, rec.VerifiedBy,
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return domain.ErrDuplicateID
		}
		return fmt.Errorf("%w: %v", domain.ErrWriteFailure, err)
	}
	return nil
}

// List returns records most-recent-first. Per the store contract it never
// fails; an unreadable backing store reads as empty.
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
WHERE id=? LIMIT 1;
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
