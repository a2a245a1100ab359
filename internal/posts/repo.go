package posts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/miguelserrato/tapiceros-backend/pkg/db/models"
)

// Repository exposes persistence helpers for the social feed.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListFeed(ctx context.Context, offset, limit int) ([]models.Post, int64, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, offset, limit int) ([]models.Post, int64, error)
	LoadCounts(ctx context.Context, posts []models.Post) error

	CreateComment(ctx context.Context, comment *models.Comment) error
	FindCommentByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	DeleteComment(ctx context.Context, id uuid.UUID) error
	ListComments(ctx context.Context, postID uuid.UUID, offset, limit int) ([]models.Comment, int64, error)

	CreateLike(ctx context.Context, like *models.PostLike) error
	DeleteLike(ctx context.Context, postID, userID uuid.UUID) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a posts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	if err := r.LoadCounts(ctx, []models.Post{post}); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *repositoryImpl) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Post{}).Error
	})
}

func (r *repositoryImpl) ListFeed(ctx context.Context, offset, limit int) ([]models.Post, int64, error) {
	return r.listPosts(ctx, r.db.WithContext(ctx).Model(&models.Post{}), offset, limit)
}

func (r *repositoryImpl) ListByAuthor(ctx context.Context, authorID uuid.UUID, offset, limit int) ([]models.Post, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID)
	return r.listPosts(ctx, query, offset, limit)
}

func (r *repositoryImpl) listPosts(ctx context.Context, query *gorm.DB, offset, limit int) ([]models.Post, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Post
	err := query.Preload("Author").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	if err := r.LoadCounts(ctx, rows); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

type postCount struct {
	PostID uuid.UUID
	Total  int64
}

// LoadCounts fills the derived like and comment counters for the given posts.
func (r *repositoryImpl) LoadCounts(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(posts))
	for i := range posts {
		ids = append(ids, posts[i].ID)
	}

	likes := make([]postCount, 0, len(ids))
	err := r.db.WithContext(ctx).Model(&models.PostLike{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&likes).Error
	if err != nil {
		return err
	}

	comments := make([]postCount, 0, len(ids))
	err = r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&comments).Error
	if err != nil {
		return err
	}

	likeByPost := make(map[uuid.UUID]int64, len(likes))
	for _, row := range likes {
		likeByPost[row.PostID] = row.Total
	}
	commentByPost := make(map[uuid.UUID]int64, len(comments))
	for _, row := range comments {
		commentByPost[row.PostID] = row.Total
	}
	for i := range posts {
		posts[i].LikeCount = likeByPost[posts[i].ID]
		posts[i].CommentCount = commentByPost[posts[i].ID]
	}
	return nil
}

func (r *repositoryImpl) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *repositoryImpl) FindCommentByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *repositoryImpl) DeleteComment(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{}).Error
}

func (r *repositoryImpl) ListComments(ctx context.Context, postID uuid.UUID, offset, limit int) ([]models.Comment, int64, error) {
	var total int64
	query := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Comment
	err := query.Preload("Author").
		Order("created_at ASC").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repositoryImpl) CreateLike(ctx context.Context, like *models.PostLike) error {
	return r.db.WithContext(ctx).Create(like).Error
}

func (r *repositoryImpl) DeleteLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.PostLike{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
