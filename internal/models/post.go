package models

import "time"

// Post is a feed entry. EventID nil places it on the global feed.
// LikesCount and CommentsCount are persisted and maintained incrementally.
type Post struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	EventID       *uint     `gorm:"index" json:"event_id,omitempty"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	User          *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	ImageURL      string    `json:"image_url"`
	LikesCount    int       `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount int       `gorm:"not null;default:0" json:"comments_count"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Comment belongs to a post; ParentID nil makes it top-level.
type Comment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PostID       uint      `gorm:"not null;index" json:"post_id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	User         *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ParentID     *uint     `gorm:"index" json:"parent_id,omitempty"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	LikesCount   int       `gorm:"not null;default:0" json:"likes_count"`
	RepliesCount int       `gorm:"not null;default:0" json:"replies_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LikePost is one user's like of a post.
type LikePost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_posts_pair" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_like_posts_pair;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeComment is one user's like of a comment.
type LikeComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_comments_pair" json:"user_id"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_like_comments_pair;index" json:"comment_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeResult is returned by the toggle-like operations.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}
