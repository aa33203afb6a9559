package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/blogposts/backend/internal/database"
	"github.com/emilythestrangee/blogposts/backend/internal/logger"
	"github.com/emilythestrangee/blogposts/backend/internal/models"
	"github.com/emilythestrangee/blogposts/backend/internal/monitoring"
)

// maxCastAttempts bounds whole-transaction retries after a unique violation.
const maxCastAttempts = 3

// VoteService is the vote ledger. It keeps at most one vote per (user, post)
// and derives counts from the stored rows on every read.
type VoteService struct {
	db *gorm.DB
}

func NewVoteService(db *gorm.DB) *VoteService {
	return &VoteService{db: db}
}

// Cast records userID's vote on postID and returns the post's fresh counts.
// Repeating a cast is a no-op; casting the other type switches the vote in place.
func (s *VoteService) Cast(ctx context.Context, postID, userID uint, voteType models.VoteType) (models.VoteCount, models.VoteTransition, error) {
	if !voteType.Valid() {
		return models.VoteCount{}, "", ErrInvalidVote
	}

	for attempt := 1; ; attempt++ {
		counts, transition, err := s.cast(ctx, postID, userID, voteType)
		if err == nil {
			monitoring.VotesCast.WithLabelValues(string(transition)).Inc()
			logger.Log.Infow("vote cast",
				"post_id", postID,
				"user_id", userID,
				"vote", voteType,
				"transition", transition,
			)
			return counts, transition, nil
		}

		if database.IsUniqueViolation(err) && attempt < maxCastAttempts {
			logger.Log.Warnw("vote cast raced, retrying", "post_id", postID, "user_id", userID, "attempt", attempt)
			continue
		}
		return models.VoteCount{}, "", wrap(err, "failed to cast vote")
	}
}

func (s *VoteService) cast(ctx context.Context, postID, userID uint, voteType models.VoteType) (models.VoteCount, models.VoteTransition, error) {
	var (
		counts     models.VoteCount
		transition models.VoteTransition
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requirePost(tx, postID); err != nil {
			return err
		}

		existing, err := findVote(tx, postID, userID)
		if err != nil {
			return err
		}

		if existing == nil {
			vote := models.Vote{UserID: userID, PostID: postID, VoteType: voteType}
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
				DoNothing: true,
			}).Omit(clause.Associations).Create(&vote)
			if res.Error != nil {
				return res.Error
			}

			if res.RowsAffected == 1 {
				transition = models.VoteCreated
			} else {
				// a concurrent cast inserted the pair first; treat ours as an update
				if existing, err = findVote(tx, postID, userID); err != nil {
					return err
				}
				if existing == nil {
					return fmt.Errorf("vote for post %d by user %d vanished after conflict", postID, userID)
				}
			}
		}

		if existing != nil {
			if existing.VoteType == voteType {
				transition = models.VoteUnchanged
			} else {
				if err := tx.Model(existing).Update("vote_type", voteType).Error; err != nil {
					return err
				}
				transition = models.VoteSwitched
			}
		}

		all, err := countVotes(tx, []uint{postID})
		if err != nil {
			return err
		}
		counts = all[postID]
		return nil
	})

	return counts, transition, err
}

// CountsForPost returns the current tally for one post.
func (s *VoteService) CountsForPost(ctx context.Context, postID uint) (models.VoteCount, error) {
	db := s.db.WithContext(ctx)
	if err := requirePost(db, postID); err != nil {
		return models.VoteCount{}, err
	}

	counts, err := countVotes(db, []uint{postID})
	if err != nil {
		return models.VoteCount{}, err
	}
	return counts[postID], nil
}

// CountsForPosts tallies several posts with one grouped query. Posts without
// votes are present with zero counts.
func (s *VoteService) CountsForPosts(ctx context.Context, postIDs []uint) (map[uint]models.VoteCount, error) {
	return countVotes(s.db.WithContext(ctx), postIDs)
}

// Decorate attaches the current counts to each post, keeping order.
func (s *VoteService) Decorate(ctx context.Context, posts []models.Post) ([]models.PostWithVotes, error) {
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}

	counts, err := s.CountsForPosts(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.PostWithVotes, 0, len(posts))
	for _, p := range posts {
		out = append(out, models.PostWithVotes{Post: p, VoteCount: counts[p.ID]})
	}
	return out, nil
}

func (s *VoteService) DecorateOne(ctx context.Context, post *models.Post) (*models.PostWithVotes, error) {
	decorated, err := s.Decorate(ctx, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &decorated[0], nil
}

// VoteOf returns userID's vote on postID, or nil if they have not voted.
func (s *VoteService) VoteOf(ctx context.Context, postID, userID uint) (*models.Vote, error) {
	db := s.db.WithContext(ctx)
	if err := requirePost(db, postID); err != nil {
		return nil, err
	}
	return findVote(db, postID, userID)
}

func findVote(db *gorm.DB, postID, userID uint) (*models.Vote, error) {
	var votes []models.Vote
	err := db.Where("user_id = ? AND post_id = ?", userID, postID).Limit(1).Find(&votes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load vote: %w", err)
	}
	if len(votes) == 0 {
		return nil, nil
	}
	return &votes[0], nil
}

func requirePost(db *gorm.DB, postID uint) error {
	found, err := exists(db.Model(&models.Post{}).Where("id = ?", postID))
	if err != nil {
		return err
	}
	if !found {
		return ErrPostNotFound
	}
	return nil
}

type voteTally struct {
	PostID   uint
	VoteType models.VoteType
	Total    int64
}

func countVotes(db *gorm.DB, postIDs []uint) (map[uint]models.VoteCount, error) {
	counts := make(map[uint]models.VoteCount, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}
	for _, id := range postIDs {
		counts[id] = models.VoteCount{}
	}

	var rows []voteTally
	err := db.Model(&models.Vote{}).
		Select("post_id, vote_type, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).
		Group("post_id, vote_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}

	for _, r := range rows {
		c := counts[r.PostID]
		switch r.VoteType {
		case models.Upvote:
			c.Upvotes = r.Total
		case models.Downvote:
			c.Downvotes = r.Total
		}
		counts[r.PostID] = c
	}
	return counts, nil
}
