package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"caption-search-backend/internal/models"
	"caption-search-backend/internal/search"
)

var ErrNotFound = errors.New("not found")

type SearchRepo struct {
	pool *pgxpool.Pool
}

func NewSearchRepo(pool *pgxpool.Pool) *SearchRepo {
	return &SearchRepo{pool: pool}
}

const jobColumns = `id, user_id, reference_list, keyword_list, status, progress, processed_references,
	hit_count, skipped_json, error_message, created_at, started_at, completed_at`

func (r *SearchRepo) Create(ctx context.Context, j *models.SearchJob) error {
	j.ID = uuid.New()
	j.Status = models.JobStatusPending
	j.Skipped = []search.SkipRecord{}

	query := `INSERT INTO search_jobs (id, user_id, reference_list, keyword_list, status)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		j.ID, j.UserID, j.References, j.Keywords, j.Status,
	).Scan(&j.CreatedAt)
}

func (r *SearchRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.SearchJob, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM search_jobs WHERE id = $1`, id)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return j, err
}

func (r *SearchRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.SearchJob, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM search_jobs WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM search_jobs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var jobs []*models.SearchJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, j)
	}
	return jobs, total, rows.Err()
}

func (r *SearchRepo) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE search_jobs SET status = $1, started_at = NOW() WHERE id = $2 AND status = $3",
		models.JobStatusProcessing, id, models.JobStatusPending,
	)
	return err
}

// ResetToPending returns an interrupted run to the queue state it was taken
// from.
func (r *SearchRepo) ResetToPending(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE search_jobs SET status = $1, started_at = NULL, progress = 0, processed_references = 0
		WHERE id = $2 AND status = $3`,
		models.JobStatusPending, id, models.JobStatusProcessing,
	)
	return err
}

func (r *SearchRepo) UpdateProgress(ctx context.Context, id uuid.UUID, progress float64, processed int) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE search_jobs SET progress = $1, processed_references = $2 WHERE id = $3",
		progress, processed, id,
	)
	return err
}

// SaveResult stores hits and skip records and finishes the job in one
// transaction.
func (r *SearchRepo) SaveResult(ctx context.Context, id uuid.UUID, status string, result *search.BatchResult) error {
	skipped, err := json.Marshal(result.Skipped)
	if err != nil {
		return fmt.Errorf("failed to encode skip records: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM search_hits WHERE job_id = $1", id); err != nil {
		return err
	}

	if len(result.Hits) > 0 {
		rows := make([][]any, 0, len(result.Hits))
		for i, h := range result.Hits {
			rows = append(rows, []any{
				id, i, h.ReferenceIndex, h.VideoID, h.Reference, h.MatchedKeywords,
				h.Seconds, h.Timestamp, h.Text, h.Link, h.Title,
			})
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"search_hits"},
			[]string{"job_id", "position", "reference_index", "video_id", "original_reference", "matched_keywords",
				"seconds", "formatted_timestamp", "source_text", "deep_link", "title"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("failed to store hits: %w", err)
		}
	}

	progress := 1.0
	if result.Total > 0 && result.Interrupted {
		progress = float64(result.Processed) / float64(result.Total)
	}

	_, err = tx.Exec(ctx,
		`UPDATE search_jobs SET status = $1, progress = $2, processed_references = $3, hit_count = $4,
			skipped_json = $5, completed_at = $6 WHERE id = $7`,
		status, progress, result.Processed, len(result.Hits), skipped, time.Now(), id,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *SearchRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE search_jobs SET status = $1, error_message = $2, completed_at = $3 WHERE id = $4",
		models.JobStatusFailed, errMsg, time.Now(), id,
	)
	return err
}

func (r *SearchRepo) Hits(ctx context.Context, jobID uuid.UUID) ([]search.SearchHit, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT reference_index, video_id, original_reference, matched_keywords, seconds,
			formatted_timestamp, source_text, deep_link, title
		FROM search_hits WHERE job_id = $1 ORDER BY position`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := []search.SearchHit{}
	for rows.Next() {
		var h search.SearchHit
		if err := rows.Scan(&h.ReferenceIndex, &h.VideoID, &h.Reference, &h.MatchedKeywords, &h.Seconds,
			&h.Timestamp, &h.Text, &h.Link, &h.Title); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// DeleteFinishedBefore removes finished jobs (hits cascade) and returns
// how many were deleted.
func (r *SearchRepo) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM search_jobs WHERE completed_at IS NOT NULL AND completed_at < $1", cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanJob(row pgx.Row) (*models.SearchJob, error) {
	j := &models.SearchJob{}
	var skipped []byte
	err := row.Scan(
		&j.ID, &j.UserID, &j.References, &j.Keywords, &j.Status, &j.Progress, &j.Processed,
		&j.HitCount, &skipped, &j.ErrorMessage, &j.CreatedAt, &j.StartedAt, &j.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	j.Skipped = []search.SkipRecord{}
	if len(skipped) > 0 {
		if err := json.Unmarshal(skipped, &j.Skipped); err != nil {
			return nil, fmt.Errorf("failed to decode skip records: %w", err)
		}
	}
	return j, nil
}
