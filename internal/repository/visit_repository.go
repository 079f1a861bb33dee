package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jengzang/heatmap-backend-go/internal/models"
)

const visitColumns = `id, latitude, longitude, timestamp_ms, duration_s`

// VisitRepository handles database operations for visit records
type VisitRepository struct {
	db *sql.DB
}

// NewVisitRepository creates a new visit repository
func NewVisitRepository(db *sql.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

// Insert appends a visit record. Records are never updated afterwards.
func (r *VisitRepository) Insert(ctx context.Context, record *models.VisitRecord) error {
	if !record.Valid() {
		return fmt.Errorf("invalid visit record %q", record.ID)
	}

	query := `INSERT INTO visit_records (` + visitColumns + `) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.Latitude, record.Longitude, record.Timestamp.UnixMilli(), record.Duration,
	)
	if err != nil {
		return fmt.Errorf("failed to insert visit record: %w", err)
	}

	return nil
}

// All returns every visit record in insertion order
func (r *VisitRepository) All(ctx context.Context) ([]models.VisitRecord, error) {
	query := `SELECT ` + visitColumns + ` FROM visit_records ORDER BY seq ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query visit records: %w", err)
	}
	defer rows.Close()

	return scanVisits(rows)
}

// List retrieves visit records with filtering and pagination, newest first
func (r *VisitRepository) List(ctx context.Context, filter models.VisitFilter) ([]models.VisitRecord, int64, error) {
	var conditions []string
	var args []interface{}

	if filter.StartTime > 0 {
		conditions = append(conditions, "timestamp_ms >= ?")
		args = append(args, filter.StartTime*1000)
	}
	if filter.EndTime > 0 {
		conditions = append(conditions, "timestamp_ms <= ?")
		args = append(args, filter.EndTime*1000)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM visit_records"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count visit records: %w", err)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}

	offset := (filter.Page - 1) * filter.PageSize
	query := `SELECT ` + visitColumns + ` FROM visit_records` + where + ` ORDER BY timestamp_ms DESC, seq DESC LIMIT ? OFFSET ?`
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query visit records: %w", err)
	}
	defer rows.Close()

	visits, err := scanVisits(rows)
	if err != nil {
		return nil, 0, err
	}

	return visits, total, nil
}

// Count returns the number of stored visit records
func (r *VisitRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM visit_records").Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count visit records: %w", err)
	}
	return total, nil
}

func scanVisits(rows *sql.Rows) ([]models.VisitRecord, error) {
	visits := make([]models.VisitRecord, 0)
	for rows.Next() {
		var v models.VisitRecord
		var timestampMs int64
		if err := rows.Scan(&v.ID, &v.Latitude, &v.Longitude, &timestampMs, &v.Duration); err != nil {
			return nil, fmt.Errorf("failed to scan visit record: %w", err)
		}
		v.Timestamp = time.UnixMilli(timestampMs).UTC()
		visits = append(visits, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visit records: %w", err)
	}

	return visits, nil
}
