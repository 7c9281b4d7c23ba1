package repository

import (
	"context"
	"errors"

	"socialgraph/internal/models"
	"socialgraph/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
	ReplaceMedias(ctx context.Context, postID uint, medias []models.Media) error
	Delete(ctx context.Context, id uint) error
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
	ToggleLike(ctx context.Context, userID, postID uint) (*models.LikeResult, error)
}

type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

func withMedias(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Medias", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	})
}

// Create inserts the post together with its media rows.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := withMedias(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewPostNotFoundError(id)
		}
		r.log.LogError(ctx, err, "get")
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	if offset < 0 {
		offset = 0
	}
	if err := withMedias(r.db.WithContext(ctx)).
		Where("author_id = ?", authorID).
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit)).
		Offset(offset).
		Find(&posts).Error; err != nil {
		r.log.LogError(ctx, err, "list_by_author")
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Post{ID: id}).Updates(fields)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewPostNotFoundError(id)
	}
	return nil
}

// ReplaceMedias swaps the post's media set for medias in one transaction.
// Orders are renumbered 1..n in slice order.
func (r *postRepository) ReplaceMedias(ctx context.Context, postID uint, medias []models.Media) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.Media{}).Error; err != nil {
			return err
		}
		if len(medias) > 0 {
			rows := make([]models.Media, len(medias))
			for i, m := range medias {
				rows[i] = models.Media{PostID: postID, URL: m.URL, Type: m.Type, Order: i + 1}
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Post{ID: postID}).UpdateColumn("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "replace_medias")
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes a post and everything hanging off it.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dep := range []any{&models.Like{}, &models.Media{}, &models.Comment{}} {
			if err := tx.Where("post_id = ?", id).Delete(dep).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Post{}, id)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	if affected == 0 {
		return models.NewPostNotFoundError(id)
	}
	return nil
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		r.log.LogError(ctx, err, "is_liked")
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// ToggleLike removes the user's like if present, otherwise adds it, and
// recomputes num_likes from the likes table inside the same transaction.
func (r *postRepository) ToggleLike(ctx context.Context, userID, postID uint) (*models.LikeResult, error) {
	result := &models.LikeResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// a concurrent toggle may have inserted the row first
			created := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Like{UserID: userID, PostID: postID})
			if created.Error != nil {
				return created.Error
			}
			result.Liked = created.RowsAffected > 0
		}

		var count int64
		if err := tx.Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
			return err
		}
		result.NumLikes = int(count)
		return tx.Model(&models.Post{ID: postID}).UpdateColumn("num_likes", count).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "toggle_like")
		return nil, models.NewInternalError(err)
	}
	return result, nil
}
