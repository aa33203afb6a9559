package models

import "time"

type VoteType string

const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

func (v VoteType) Valid() bool {
	return v == Upvote || v == Downvote
}

// Vote tracks one user's judgment on one post. (user_id, post_id) is unique.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_votes_user_post,priority:1" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_votes_user_post,priority:2;index" json:"post_id"`
	VoteType  VoteType  `gorm:"type:varchar(8);not null;check:chk_votes_vote_type,vote_type IN ('upvote','downvote')" json:"vote_type"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Post      Post      `gorm:"foreignKey:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type VoteRequest struct {
	Vote VoteType `json:"vote"`
}

type VoteCount struct {
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
}

// VoteTransition reports what a cast did to the (user, post) pair.
type VoteTransition string

const (
	VoteCreated   VoteTransition = "created"
	VoteSwitched  VoteTransition = "switched"
	VoteUnchanged VoteTransition = "unchanged"
)
