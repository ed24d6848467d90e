package postgresql

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"media-fetch-service/internal/entity"
)

var ErrNotFound = errors.New("not found")

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// RecordRepository is the document-store tier: the full record is kept as
// jsonb keyed by job_id, with a few columns lifted out for the stats query.
type RecordRepository struct {
	pool *pgxpool.Pool
}

func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

// Upsert inserts or replaces the record for its job_id.
func (r *RecordRepository) Upsert(ctx context.Context, rec *entity.JobRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO job_records (job_id, status, requester_id, requester_name, record, updated_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (job_id) DO UPDATE
SET status = EXCLUDED.status,
    requester_id = EXCLUDED.requester_id,
    requester_name = EXCLUDED.requester_name,
    record = EXCLUDED.record,
    updated_at = now();
`
	_, err = r.pool.Exec(ctx, q, rec.ID, string(rec.Status), rec.RequesterID, rec.RequesterName, payload)
	return err
}

func (r *RecordRepository) GetByID(ctx context.Context, id string) (*entity.JobRecord, error) {
	const q = `SELECT record FROM job_records WHERE job_id = $1;`

	var payload []byte
	if err := r.pool.QueryRow(ctx, q, id).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var rec entity.JobRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *RecordRepository) Stats(ctx context.Context) (entity.Stats, error) {
	const counts = `
SELECT count(*),
       count(*) FILTER (WHERE status = 'completed'),
       count(*) FILTER (WHERE status = 'failed'),
       count(*) FILTER (WHERE status IN ('queued', 'processing'))
FROM job_records;
`
	var s entity.Stats
	if err := r.pool.QueryRow(ctx, counts).Scan(&s.Total, &s.Completed, &s.Failed, &s.InProgress); err != nil {
		return entity.Stats{}, err
	}

	const top = `
SELECT requester_id, max(requester_name), count(*)
FROM job_records
WHERE requester_id <> ''
GROUP BY requester_id
ORDER BY count(*) DESC
LIMIT 5;
`
	rows, err := r.pool.Query(ctx, top)
	if err != nil {
		return entity.Stats{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var rc entity.RequesterCount
		if err := rows.Scan(&rc.RequesterID, &rc.RequesterName, &rc.Count); err != nil {
			return entity.Stats{}, err
		}
		s.TopRequesters = append(s.TopRequesters, rc)
	}
	return s, rows.Err()
}
