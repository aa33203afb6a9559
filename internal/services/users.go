package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/emilythestrangee/blogposts/backend/internal/database"
	"github.com/emilythestrangee/blogposts/backend/internal/logger"
	"github.com/emilythestrangee/blogposts/backend/internal/models"
)

// PasswordHasher hashes plaintext passwords before they are stored.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// UserService is the user directory.
type UserService struct {
	db     *gorm.DB
	hasher PasswordHasher
}

func NewUserService(db *gorm.DB, hasher PasswordHasher) *UserService {
	return &UserService{db: db, hasher: hasher}
}

// Create registers a new user. Username is checked before email.
func (s *UserService) Create(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if strings.TrimSpace(req.Username) == "" {
		return nil, invalidInput("Username is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, invalidInput("Email is required")
	}
	if req.Password == "" {
		return nil, invalidInput("Password is required")
	}

	db := s.db.WithContext(ctx)
	if err := s.checkAvailable(db, 0, &req.Username, &req.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return nil, err
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	if err := db.Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			// lost a race with a concurrent registration
			return nil, s.conflictFor(db, 0, &req.Username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.Log.Infow("user registered", "user_id", user.ID, "username", user.Username)
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Search matches q case-insensitively against username, email and names.
func (s *UserService) Search(ctx context.Context, q string) ([]models.User, error) {
	if strings.TrimSpace(q) == "" {
		return nil, ErrEmptySearch
	}

	pattern := likePattern(q)
	users := []models.User{}
	err := s.db.WithContext(ctx).
		Where("LOWER(username) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\' OR "+
			"LOWER(first_name) LIKE ? ESCAPE '\\' OR LOWER(last_name) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern, pattern).
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

// Update applies the non-nil fields of upd to user id.
func (s *UserService) Update(ctx context.Context, id uint, upd models.UserUpdate) (*models.User, error) {
	if upd.Username != nil && strings.TrimSpace(*upd.Username) == "" {
		return nil, invalidInput("Username must not be empty")
	}
	if upd.Email != nil && strings.TrimSpace(*upd.Email) == "" {
		return nil, invalidInput("Email must not be empty")
	}

	var hash string
	if upd.Password != nil {
		if *upd.Password == "" {
			return nil, invalidInput("Password must not be empty")
		}
		var err error
		if hash, err = s.hasher.Hash(*upd.Password); err != nil {
			logger.Log.Errorw("failed to hash password", "err", err)
			return nil, err
		}
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}

		var username, email *string
		if upd.Username != nil && *upd.Username != user.Username {
			username = upd.Username
		}
		if upd.Email != nil && *upd.Email != user.Email {
			email = upd.Email
		}
		if err := s.checkAvailable(tx, id, username, email); err != nil {
			return err
		}

		if username != nil {
			user.Username = *username
		}
		if email != nil {
			user.Email = *email
		}
		if upd.FirstName != nil {
			user.FirstName = *upd.FirstName
		}
		if upd.LastName != nil {
			user.LastName = *upd.LastName
		}
		if hash != "" {
			user.PasswordHash = hash
		}

		return tx.Save(&user).Error
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, s.conflictFor(s.db.WithContext(ctx), id, upd.Username)
		}
		return nil, wrap(err, "failed to update user")
	}

	logger.Log.Infow("user updated", "user_id", user.ID)
	return &user, nil
}

// Delete removes the user with their posts, the votes on those posts and
// the votes they cast.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}

		authored := tx.Model(&models.Post{}).Select("id").Where("author_id = ?", id)
		if err := tx.Where("user_id = ? OR post_id IN (?)", id, authored).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return wrap(err, "failed to delete user")
	}

	logger.Log.Infow("user deleted", "user_id", id)
	return nil
}

// checkAvailable reports a conflict if username or email belongs to a user
// other than self. Nil values are skipped.
func (s *UserService) checkAvailable(db *gorm.DB, self uint, username, email *string) error {
	if username != nil {
		taken, err := exists(db.Model(&models.User{}).Where("username = ? AND id <> ?", *username, self))
		if err != nil {
			return err
		}
		if taken {
			return ErrUsernameTaken
		}
	}
	if email != nil {
		taken, err := exists(db.Model(&models.User{}).Where("email = ? AND id <> ?", *email, self))
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
	}
	return nil
}

// conflictFor picks the message for a unique violation raised by the store.
func (s *UserService) conflictFor(db *gorm.DB, self uint, username *string) error {
	if username != nil {
		if taken, err := exists(db.Model(&models.User{}).Where("username = ? AND id <> ?", *username, self)); err == nil && taken {
			return ErrUsernameTaken
		}
	}
	return ErrEmailTaken
}

func exists(q *gorm.DB) (bool, error) {
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to count rows: %w", err)
	}
	return n > 0, nil
}

// notFound maps gorm.ErrRecordNotFound onto e and wraps anything else.
func notFound(err error, e *Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return e
	}
	return fmt.Errorf("query failed: %w", err)
}

// wrap adds context to storage errors but passes domain errors through.
func wrap(err error, msg string) error {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
