package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/blogposts/backend/internal/logger"
	"github.com/emilythestrangee/blogposts/backend/internal/models"
)

const newestFirst = "created_at desc, id desc"

// PostService is the post store. Mutations are restricted to the author.
type PostService struct {
	db *gorm.DB
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{db: db}
}

// Create inserts the post and reads it back with its author in the same transaction.
func (s *PostService) Create(ctx context.Context, authorID uint, req models.PostRequest) (*models.Post, error) {
	if err := validatePost(req); err != nil {
		return nil, err
	}

	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := exists(tx.Model(&models.User{}).Where("id = ?", authorID))
		if err != nil {
			return err
		}
		if !found {
			return ErrUserNotFound
		}

		post = models.Post{Title: req.Title, Content: req.Content, AuthorID: authorID}
		if err := tx.Omit(clause.Associations).Create(&post).Error; err != nil {
			return err
		}
		return tx.Preload("Author").First(&post, post.ID).Error
	})
	if err != nil {
		return nil, wrap(err, "failed to create post")
	}

	logger.Log.Infow("post created", "post_id", post.ID, "author_id", authorID)
	return &post, nil
}

func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Preload("Author").First(&post, id).Error; err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	return &post, nil
}

// List returns every post, newest first.
func (s *PostService) List(ctx context.Context) ([]models.Post, error) {
	posts := []models.Post{}
	if err := s.db.WithContext(ctx).Preload("Author").Order(newestFirst).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// Search matches q case-insensitively against title and content.
func (s *PostService) Search(ctx context.Context, q string) ([]models.Post, error) {
	if strings.TrimSpace(q) == "" {
		return nil, ErrEmptySearch
	}

	posts := []models.Post{}
	err := matching(s.db.WithContext(ctx).Preload("Author"), q).
		Order(newestFirst).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}
	return posts, nil
}

// ListByAuthor returns authorID's posts, optionally filtered by q.
// An unknown author yields an empty list.
func (s *PostService) ListByAuthor(ctx context.Context, authorID uint, q string) ([]models.Post, error) {
	query := s.db.WithContext(ctx).Preload("Author").Where("author_id = ?", authorID)
	if strings.TrimSpace(q) != "" {
		query = matching(query, q)
	}

	posts := []models.Post{}
	if err := query.Order(newestFirst).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts by author: %w", err)
	}
	return posts, nil
}

// Update replaces title and content. Only the author may edit.
func (s *PostService) Update(ctx context.Context, id, requesterID uint, req models.PostRequest) (*models.Post, error) {
	if err := validatePost(req); err != nil {
		return nil, err
	}

	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, id).Error; err != nil {
			return notFound(err, ErrPostNotFound)
		}
		if post.AuthorID != requesterID {
			return ErrEditForbidden
		}

		err := tx.Model(&post).Updates(map[string]interface{}{
			"title":   req.Title,
			"content": req.Content,
		}).Error
		if err != nil {
			return err
		}
		return tx.Preload("Author").First(&post, id).Error
	})
	if err != nil {
		return nil, wrap(err, "failed to update post")
	}

	logger.Log.Infow("post edited", "post_id", id, "user_id", requesterID)
	return &post, nil
}

// Delete removes the post and its votes. Only the author may delete.
func (s *PostService) Delete(ctx context.Context, id, requesterID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, id).Error; err != nil {
			return notFound(err, ErrPostNotFound)
		}
		if post.AuthorID != requesterID {
			return ErrDeleteForbidden
		}

		if err := tx.Where("post_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		return wrap(err, "failed to delete post")
	}

	logger.Log.Infow("post deleted", "post_id", id, "user_id", requesterID)
	return nil
}

func matching(db *gorm.DB, q string) *gorm.DB {
	pattern := likePattern(q)
	return db.Where("(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(content) LIKE ? ESCAPE '\\')", pattern, pattern)
}

func validatePost(req models.PostRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return invalidInput("Title is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return invalidInput("Content is required")
	}
	return nil
}
