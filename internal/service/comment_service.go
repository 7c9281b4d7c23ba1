package service

import (
	"context"
	"strings"

	"socialgraph/internal/models"
	"socialgraph/internal/repository"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	blocks      BlockChecker
}

type CreateCommentInput struct {
	UserID     uint
	PostID     uint
	Content    string
	AnsweredID *uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	blocks BlockChecker,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		blocks:      blocks,
	}
}

// CreateComment adds a comment unless the post has comments closed or its
// author has blocked the commenter.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}
	if post.IsBlockComment {
		return nil, models.NewForbiddenError("Comments are disabled for this post")
	}
	if s.blocks != nil && in.UserID != post.AuthorID {
		blocked, err := s.blocks.CheckIsBlock(ctx, in.UserID, post.AuthorID)
		if err != nil {
			return nil, err
		}
		if blocked {
			return nil, models.NewForbiddenError("User has no permission")
		}
	}
	if in.AnsweredID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.AnsweredID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewValidationError("Answered comment belongs to another post")
		}
	}

	comment := &models.Comment{
		Content:    in.Content,
		AuthorID:   in.UserID,
		PostID:     in.PostID,
		AnsweredID: in.AnsweredID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) ListComments(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID, limit, offset)
}
