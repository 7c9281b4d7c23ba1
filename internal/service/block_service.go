package service

import (
	"context"
	"strconv"

	"socialgraph/internal/models"
	"socialgraph/internal/observability"
	"socialgraph/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// BlockService maintains directed block edges.
type BlockService struct {
	blockRepo repository.BlockRepository
	userRepo  repository.UserRepository
}

// NewBlockService returns a new BlockService.
func NewBlockService(blockRepo repository.BlockRepository, userRepo repository.UserRepository) *BlockService {
	return &BlockService{blockRepo: blockRepo, userRepo: userRepo}
}

// SetBlock applies action from userID to targetID and returns the resulting
// block list. Repeating BLOCK or UNBLOCK is a no-op.
func (s *BlockService) SetBlock(ctx context.Context, userID, targetID uint, action models.BlockAction) (list []models.PublicUser, err error) {
	ctx, span := observability.StartSpan(ctx, "block", "set_block",
		attribute.Int64("user_id", int64(userID)), attribute.Int64("target_id", int64(targetID)),
		attribute.String("action", string(action)))
	defer func() { observability.EndSpan(span, err) }()

	if !action.Valid() {
		return nil, models.NewValidationError("type must be BLOCK or UNBLOCK")
	}
	if userID == targetID {
		return nil, models.NewValidationError("Cannot block yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	var changed bool
	if action == models.BlockActionBlock {
		changed, err = s.blockRepo.Block(ctx, userID, targetID)
	} else {
		changed, err = s.blockRepo.Unblock(ctx, userID, targetID)
	}
	if err != nil {
		return nil, err
	}
	observability.BlockActions.WithLabelValues(string(action), strconv.FormatBool(changed)).Inc()
	if !changed {
		observability.NewRepoLogger("block_edges").Debug(ctx, "noop",
			"action", string(action), "blocker_id", userID, "blocked_id", targetID)
	}

	return s.GetBlockList(ctx, userID)
}

// GetBlockList returns the public profiles of every user userID has blocked.
func (s *BlockService) GetBlockList(ctx context.Context, userID uint) ([]models.PublicUser, error) {
	edges, err := s.blockRepo.ListBlocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	list := make([]models.PublicUser, 0, len(edges))
	for i := range edges {
		u := models.ToPublicUser(edges[i].Blocked)
		if u.ID == 0 {
			u.ID = edges[i].BlockedID
		}
		list = append(list, u)
	}
	return list, nil
}

// CheckIsBlock reports whether userID has checkUserID blocked. Only the
// owner's outgoing edges are consulted.
func (s *BlockService) CheckIsBlock(ctx context.Context, checkUserID, userID uint) (bool, error) {
	return s.blockRepo.IsBlocked(ctx, userID, checkUserID)
}
