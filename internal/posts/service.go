package posts

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/miguelserrato/tapiceros-backend/pkg/db"
	"github.com/miguelserrato/tapiceros-backend/pkg/db/models"
	pkgerrors "github.com/miguelserrato/tapiceros-backend/pkg/errors"
	"github.com/miguelserrato/tapiceros-backend/pkg/pagination"
	"github.com/miguelserrato/tapiceros-backend/pkg/types"
)

// Service defines the social feed operations.
type Service interface {
	Create(ctx context.Context, authorID uuid.UUID, input CreatePostInput) (*models.Post, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Post, error)
	Feed(ctx context.Context, params pagination.Params) ([]models.Post, *types.Pagination, error)
	ByAuthor(ctx context.Context, authorID uuid.UUID, params pagination.Params) ([]models.Post, *types.Pagination, error)
	Update(ctx context.Context, id, callerID uuid.UUID, input UpdatePostInput) (*models.Post, error)
	Delete(ctx context.Context, id, callerID uuid.UUID) error

	AddComment(ctx context.Context, postID, authorID uuid.UUID, input CreateCommentInput) (*models.Comment, error)
	Comments(ctx context.Context, postID uuid.UUID, params pagination.Params) ([]models.Comment, *types.Pagination, error)
	DeleteComment(ctx context.Context, commentID, callerID uuid.UUID) error

	Like(ctx context.Context, postID, userID uuid.UUID) (*LikeResult, error)
	Unlike(ctx context.Context, postID, userID uuid.UUID) (*LikeResult, error)
}

type service struct {
	repo Repository
}

// NewService wires the feed service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "posts repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, authorID uuid.UUID, input CreatePostInput) (*models.Post, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content is required")
	}
	post := &models.Post{
		AuthorID: authorID,
		Content:  content,
		ImageURL: input.ImageURL,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, db.Translate(err, "create post")
	}
	return s.Get(ctx, post.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Translate(err, "load post")
	}
	return post, nil
}

func (s *service) Feed(ctx context.Context, params pagination.Params) ([]models.Post, *types.Pagination, error) {
	params = params.Normalize(20, 50)
	rows, total, err := s.repo.ListFeed(ctx, params.Offset(), params.Limit)
	if err != nil {
		return nil, nil, db.Translate(err, "list feed")
	}
	return rows, params.Envelope(total), nil
}

func (s *service) ByAuthor(ctx context.Context, authorID uuid.UUID, params pagination.Params) ([]models.Post, *types.Pagination, error) {
	params = params.Normalize(20, 50)
	rows, total, err := s.repo.ListByAuthor(ctx, authorID, params.Offset(), params.Limit)
	if err != nil {
		return nil, nil, db.Translate(err, "list posts by author")
	}
	return rows, params.Envelope(total), nil
}

func (s *service) Update(ctx context.Context, id, callerID uuid.UUID, input UpdatePostInput) (*models.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != callerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the author can edit a post")
	}

	if input.Content != nil {
		content := strings.TrimSpace(*input.Content)
		if content == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "content cannot be empty")
		}
		post.Content = content
	}
	if input.ImageURL != nil {
		post.ImageURL = input.ImageURL
	}

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, db.Translate(err, "update post")
	}
	return post, nil
}

func (s *service) Delete(ctx context.Context, id, callerID uuid.UUID) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != callerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the author can delete a post")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return db.Translate(err, "delete post")
	}
	return nil
}

func (s *service) AddComment(ctx context.Context, postID, authorID uuid.UUID, input CreateCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content is required")
	}
	if _, err := s.Get(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Content:  content,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, db.Translate(err, "create comment")
	}
	return comment, nil
}

func (s *service) Comments(ctx context.Context, postID uuid.UUID, params pagination.Params) ([]models.Comment, *types.Pagination, error) {
	if _, err := s.Get(ctx, postID); err != nil {
		return nil, nil, err
	}
	params = params.Normalize(20, 100)
	rows, total, err := s.repo.ListComments(ctx, postID, params.Offset(), params.Limit)
	if err != nil {
		return nil, nil, db.Translate(err, "list comments")
	}
	return rows, params.Envelope(total), nil
}

func (s *service) DeleteComment(ctx context.Context, commentID, callerID uuid.UUID) error {
	comment, err := s.repo.FindCommentByID(ctx, commentID)
	if err != nil {
		return db.Translate(err, "load comment")
	}
	if comment.AuthorID != callerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the author can delete a comment")
	}
	if err := s.repo.DeleteComment(ctx, commentID); err != nil {
		return db.Translate(err, "delete comment")
	}
	return nil
}

func (s *service) Like(ctx context.Context, postID, userID uuid.UUID) (*LikeResult, error) {
	if _, err := s.Get(ctx, postID); err != nil {
		return nil, err
	}

	like := &models.PostLike{PostID: postID, UserID: userID}
	if err := s.repo.CreateLike(ctx, like); err != nil {
		// Liking an already liked post is a no-op, not a conflict.
		translated := db.Translate(err, "create like")
		if coded := pkgerrors.As(translated); coded == nil || coded.Code() != pkgerrors.CodeConflict {
			return nil, translated
		}
	}
	return s.likeResult(ctx, postID, true)
}

func (s *service) Unlike(ctx context.Context, postID, userID uuid.UUID) (*LikeResult, error) {
	if _, err := s.Get(ctx, postID); err != nil {
		return nil, err
	}
	if _, err := s.repo.DeleteLike(ctx, postID, userID); err != nil {
		return nil, db.Translate(err, "delete like")
	}
	return s.likeResult(ctx, postID, false)
}

func (s *service) likeResult(ctx context.Context, postID uuid.UUID, liked bool) (*LikeResult, error) {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &LikeResult{Liked: liked, LikeCount: post.LikeCount}, nil
}
