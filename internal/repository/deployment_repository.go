package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yourorg/symphony-service/internal/model"
	"github.com/yourorg/symphony-service/internal/utils"
)

// DeploymentRepository persists deployment records. The symphony id returned
// by the platform is the only durable handle on a deployed strategy, so it is
// written here the moment the platform confirms.
type DeploymentRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewDeploymentRepository creates a new deployment repository.
func NewDeploymentRepository(db *sqlx.DB, logger *zap.Logger) *DeploymentRepository {
	return &DeploymentRepository{db: db, logger: logger}
}

// Create inserts a deployment record and returns its id.
func (r *DeploymentRepository) Create(ctx context.Context, record *model.DeploymentRecord) (int, error) {
	query := `
		INSERT INTO deployments (strategy_name, symphony_id, color, tag, document, deployed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id int
	err := r.db.QueryRowxContext(
		ctx,
		query,
		record.StrategyName,
		record.SymphonyID,
		record.Color,
		record.Tag,
		record.Document,
		record.DeployedAt,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert deployment record",
			zap.String("strategy", record.StrategyName),
			zap.Error(err))
		return 0, err
	}
	return id, nil
}

// List returns deployment records, newest first, with the total count for
// pagination.
func (r *DeploymentRepository) List(ctx context.Context, page, limit int) ([]model.DeploymentRecord, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM deployments`); err != nil {
		r.logger.Error("Failed to count deployments", zap.Error(err))
		return nil, 0, err
	}

	query := `
		SELECT id, strategy_name, symphony_id, color, tag, document, deployed_at
		FROM deployments
		ORDER BY deployed_at DESC
		LIMIT $1 OFFSET $2`

	records := []model.DeploymentRecord{}
	offset := utils.CalculateOffset(page, limit)
	if err := r.db.SelectContext(ctx, &records, query, limit, offset); err != nil {
		r.logger.Error("Failed to list deployments", zap.Error(err))
		return nil, 0, err
	}
	return records, total, nil
}

// GetBySymphonyID returns the record for a platform identifier, or nil when
// none exists.
func (r *DeploymentRepository) GetBySymphonyID(ctx context.Context, symphonyID string) (*model.DeploymentRecord, error) {
	query := `
		SELECT id, strategy_name, symphony_id, color, tag, document, deployed_at
		FROM deployments
		WHERE symphony_id = $1`

	var record model.DeploymentRecord
	err := r.db.GetContext(ctx, &record, query, symphonyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get deployment record",
			zap.String("symphony_id", symphonyID),
			zap.Error(err))
		return nil, err
	}
	return &record, nil
}
