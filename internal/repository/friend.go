package repository

import (
	"context"
	"errors"
	"time"

	"socialgraph/internal/models"
	"socialgraph/internal/observability"

	"gorm.io/gorm"
)

// FriendRepository persists directed friend request rows. There is at most
// one row per ordered (sender, receiver) pair.
type FriendRepository interface {
	Create(ctx context.Context, req *models.FriendRequest) error
	FindDirected(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error)
	FindEitherDirection(ctx context.Context, userA, userB uint) (*models.FriendRequest, error)
	FindAccepted(ctx context.Context, userA, userB uint) (*models.FriendRequest, error)
	TransitionStatus(ctx context.Context, req *models.FriendRequest, to models.FriendStatus, from ...models.FriendStatus) (bool, error)
	ListFriends(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	ListIncoming(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	ListOutgoing(ctx context.Context, userID uint) ([]models.FriendRequest, error)
}

type friendRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db, log: observability.NewRepoLogger("friend_requests")}
}

// Create inserts a new row. A concurrent insert for the same ordered pair
// surfaces as a CONFLICT AppError.
func (r *friendRepository) Create(ctx context.Context, req *models.FriendRequest) error {
	if req.Version == 0 {
		req.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Friend request already exists")
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *friendRepository) first(ctx context.Context, query string, args ...any) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := r.db.WithContext(ctx).Where(query, args...).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.LogError(ctx, err, "read")
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

// FindDirected returns the sender->receiver row, or nil when none exists.
func (r *friendRepository) FindDirected(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error) {
	return r.first(ctx, "sender_id = ? AND receiver_id = ?", senderID, receiverID)
}

// FindEitherDirection returns the a->b row if present, else the b->a row.
func (r *friendRepository) FindEitherDirection(ctx context.Context, userA, userB uint) (*models.FriendRequest, error) {
	req, err := r.FindDirected(ctx, userA, userB)
	if err != nil || req != nil {
		return req, err
	}
	return r.FindDirected(ctx, userB, userA)
}

// FindAccepted returns the accepted row between the users in either direction.
func (r *friendRepository) FindAccepted(ctx context.Context, userA, userB uint) (*models.FriendRequest, error) {
	req, err := r.first(ctx, "sender_id = ? AND receiver_id = ? AND status = ?", userA, userB, models.FriendStatusAccepted)
	if err != nil || req != nil {
		return req, err
	}
	return r.first(ctx, "sender_id = ? AND receiver_id = ? AND status = ?", userB, userA, models.FriendStatusAccepted)
}

// TransitionStatus moves req to `to` only if the stored row still has req's
// version and one of the `from` statuses. It reports false when another
// writer got there first; req is updated in place on success.
func (r *friendRepository) TransitionStatus(ctx context.Context, req *models.FriendRequest, to models.FriendStatus, from ...models.FriendStatus) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&models.FriendRequest{}).
		Where("id = ? AND version = ?", req.ID, req.Version)
	if len(from) > 0 {
		q = q.Where("status IN ?", from)
	}

	now := time.Now()
	res := q.UpdateColumns(map[string]any{
		"status":     to,
		"version":    gorm.Expr("version + 1"),
		"updated_at": now,
	})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update")
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		r.log.Warn(ctx, "update", "stale friend request transition",
			"request_id", req.ID, "version", req.Version, "to", string(to))
		return false, nil
	}

	req.Status = to
	req.Version++
	req.UpdatedAt = now
	return true, nil
}

// ListFriends returns accepted rows touching userID, newest first, with both
// sides preloaded.
func (r *friendRepository) ListFriends(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	var rows []models.FriendRequest
	if err := r.db.WithContext(ctx).
		Where("(sender_id = ? OR receiver_id = ?) AND status = ?", userID, userID, models.FriendStatusAccepted).
		Preload("Sender").
		Preload("Receiver").
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		r.log.LogError(ctx, err, "list_friends")
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

// ListIncoming returns pending requests addressed to userID, newest first.
func (r *friendRepository) ListIncoming(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	var rows []models.FriendRequest
	if err := r.db.WithContext(ctx).
		Where("receiver_id = ? AND status = ?", userID, models.FriendStatusSendReq).
		Preload("Sender").
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		r.log.LogError(ctx, err, "list_incoming")
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

// ListOutgoing returns pending requests sent by userID, newest first.
func (r *friendRepository) ListOutgoing(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	var rows []models.FriendRequest
	if err := r.db.WithContext(ctx).
		Where("sender_id = ? AND status = ?", userID, models.FriendStatusSendReq).
		Preload("Receiver").
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		r.log.LogError(ctx, err, "list_outgoing")
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}
