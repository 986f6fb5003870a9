package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// ErrRatingExists means a rating for the complaint was already stored; the
// unique constraint on complaint_id is the source of truth under concurrency.
var ErrRatingExists = errors.New("rating already exists for complaint")

// RatingRepository stores post-resolution ratings.
type RatingRepository interface {
	Create(ctx context.Context, rating *domain.Rating) error
	GetByComplaint(ctx context.Context, complaintID string) (*domain.Rating, error)
}

type ratingRepository struct {
	pool *pgxpool.Pool
}

// NewRatingRepository builds the repository.
func NewRatingRepository(pool *pgxpool.Pool) RatingRepository {
	return &ratingRepository{pool: pool}
}

func (r *ratingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	const query = `
        INSERT INTO ratings (complaint_id, worker_id, score, feedback)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		rating.ComplaintID,
		rating.WorkerID,
		rating.Score,
		rating.Feedback,
	).Scan(&rating.ID, &rating.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrRatingExists
		}
		return err
	}
	return nil
}

func (r *ratingRepository) GetByComplaint(ctx context.Context, complaintID string) (*domain.Rating, error) {
	const query = `
        SELECT id, complaint_id, worker_id, score, feedback, created_at
        FROM ratings WHERE complaint_id=$1`
	var rating domain.Rating
	if err := r.pool.QueryRow(ctx, query, complaintID).Scan(
		&rating.ID,
		&rating.ComplaintID,
		&rating.WorkerID,
		&rating.Score,
		&rating.Feedback,
		&rating.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &rating, nil
}
