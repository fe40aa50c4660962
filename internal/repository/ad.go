package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Dev-Aaron27/fireboard/internal/models"
)

type AdRepository interface {
	// SaveAd inserts the ad unless a record with the same
	// (author_id, timestamp) pair already exists. Returns true when the ad
	// was a duplicate and nothing was written.
	SaveAd(ctx context.Context, ad *models.Ad) (bool, error)
	// ListAds returns all stored ads, most recent first.
	ListAds(ctx context.Context) ([]models.Ad, error)
}

type adRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewAdRepository(db *sqlx.DB, logger *zap.Logger) AdRepository {
	return &adRepository{db: db, logger: logger}
}

// SaveAd relies on the unique index on (author_id, timestamp): the
// check-then-insert is a single atomic statement, so concurrent submissions
// of the same pair cannot both insert.
func (r *adRepository) SaveAd(ctx context.Context, ad *models.Ad) (bool, error) {
	query := `INSERT INTO ads (server_name, category, content, invite, "timestamp", author_id)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (author_id, "timestamp") DO NOTHING
	          RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		ad.ServerName, ad.Category, ad.Content, ad.Invite, ad.Timestamp, ad.AuthorID).Scan(&ad.ID)
	if errors.Is(err, sql.ErrNoRows) {
		// Conflict: the pair is already stored.
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// ListAds orders by timestamp descending, with the storage-assigned id as the
// tie-breaker so ads sharing a timestamp come back newest-inserted first.
func (r *adRepository) ListAds(ctx context.Context) ([]models.Ad, error) {
	ads := []models.Ad{}
	query := `SELECT id, server_name, category, content, invite, "timestamp", author_id
	          FROM ads
	          ORDER BY "timestamp" DESC, id DESC`
	if err := r.db.SelectContext(ctx, &ads, query); err != nil {
		r.logger.Error("Failed to list ads", zap.Error(err))
		return nil, err
	}
	return ads, nil
}
