package repository

import (
	"context"

	"socialgraph/internal/cache"
	"socialgraph/internal/models"
	"socialgraph/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlockRepository stores directed blocker->blocked edges.
type BlockRepository interface {
	Block(ctx context.Context, blockerID, blockedID uint) (bool, error)
	Unblock(ctx context.Context, blockerID, blockedID uint) (bool, error)
	ListBlocked(ctx context.Context, blockerID uint) ([]models.BlockEdge, error)
	IsBlocked(ctx context.Context, blockerID, blockedID uint) (bool, error)
}

type blockRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewBlockRepository creates a new block repository
func NewBlockRepository(db *gorm.DB) BlockRepository {
	return &blockRepository{db: db, log: observability.NewRepoLogger("block_edges")}
}

// Block inserts the edge and reports whether a new row was written.
func (r *blockRepository) Block(ctx context.Context, blockerID, blockedID uint) (bool, error) {
	edge := &models.BlockEdge{BlockerID: blockerID, BlockedID: blockedID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(edge)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "create")
		return false, models.NewInternalError(res.Error)
	}
	cache.InvalidateBlock(ctx, blockerID, blockedID)
	return res.RowsAffected > 0, nil
}

// Unblock deletes the edge and reports whether a row was removed.
func (r *blockRepository) Unblock(ctx context.Context, blockerID, blockedID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.BlockEdge{})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return false, models.NewInternalError(res.Error)
	}
	cache.InvalidateBlock(ctx, blockerID, blockedID)
	return res.RowsAffected > 0, nil
}

// ListBlocked returns the outgoing edges of blockerID with target profiles.
func (r *blockRepository) ListBlocked(ctx context.Context, blockerID uint) ([]models.BlockEdge, error) {
	var edges []models.BlockEdge
	if err := r.db.WithContext(ctx).
		Where("blocker_id = ?", blockerID).
		Preload("Blocked").
		Order("created_at DESC").
		Find(&edges).Error; err != nil {
		r.log.LogError(ctx, err, "list")
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}

// IsBlocked reports whether blockerID has blockedID blocked.
func (r *blockRepository) IsBlocked(ctx context.Context, blockerID, blockedID uint) (bool, error) {
	var blocked bool
	err := cache.Aside(ctx, cache.BlockKey(blockerID, blockedID), &blocked, cache.BlockTTL, func() error {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.BlockEdge{}).
			Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
			Count(&count).Error; err != nil {
			r.log.LogError(ctx, err, "count")
			return models.NewInternalError(err)
		}
		blocked = count > 0
		return nil
	})
	return blocked, err
}
