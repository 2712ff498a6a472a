package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"eventhub/internal/models"
	"eventhub/internal/repository"
)

const (
	maxContentLen = 50000
	maxPageSize   = 100
)

// PostService owns posts and the feeds built from them.
type PostService struct {
	store    *repository.Store
	notifier Notifier
}

type CreatePostInput struct {
	UserID   uint
	EventID  *uint
	Content  string
	ImageURL string
}

type UpdatePostInput struct {
	PostID   uint
	Content  string
	ImageURL *string
}

type ListPostsInput struct {
	Limit  int
	Offset int
}

func (in ListPostsInput) page() repository.Page {
	limit := in.Limit
	if limit <= 0 || limit > maxPageSize {
		limit = 20
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}
	return repository.Page{Limit: limit, Offset: offset}
}

func NewPostService(store *repository.Store, notifier Notifier) *PostService {
	return &PostService{
		store:    store,
		notifier: notifier,
	}
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	if len(content) > maxContentLen {
		return models.NewValidationError("Content too long (max 50000 characters)")
	}
	return nil
}

// CreatePost publishes a post on an event or, with a nil EventID, on the
// global feed. Every other registrant of the event is notified.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:   in.UserID,
		EventID:  in.EventID,
		Content:  in.Content,
		ImageURL: strings.TrimSpace(in.ImageURL),
	}

	out := newOutbox(s.notifier)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		author, err := tx.Users.GetByID(ctx, in.UserID)
		if err != nil {
			return err
		}

		var event *models.Event
		if in.EventID != nil {
			if event, err = tx.Events.GetByID(ctx, *in.EventID); err != nil {
				return err
			}
		}
		if err := tx.Posts.Create(ctx, post); err != nil {
			return err
		}
		post.User = author

		if event == nil {
			return nil
		}
		regs, err := tx.Registrations.ListByEvent(ctx, event.ID, nil)
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("New post in %q", event.Title)
		for _, reg := range regs {
			if reg.UserID == in.UserID {
				continue
			}
			if err := out.add(ctx, tx, reg.UserID, msg, eventLink(event.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.flush(ctx)
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, postID uint) (*models.Post, error) {
	return s.store.Posts.GetByID(ctx, postID)
}

// UpdatePost replaces the content and, when given, the image of a post.
func (s *PostService) UpdatePost(ctx context.Context, p models.Principal, in UpdatePostInput) (*models.Post, error) {
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}
	post, err := s.store.Posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !p.Owns(post.UserID) {
		return nil, models.NewForbiddenError("not allowed to update this post")
	}

	post.Content = in.Content
	if in.ImageURL != nil {
		post.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if err := s.store.Posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes a post with all of its comments and likes.
func (s *PostService) DeletePost(ctx context.Context, p models.Principal, postID uint) error {
	var stats cascadeStats
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		post, err := tx.Posts.GetByID(ctx, postID)
		if err != nil {
			return err
		}
		if !p.Owns(post.UserID) {
			return models.NewForbiddenError("not allowed to delete this post")
		}
		if err := purgePostContent(ctx, tx, []uint{postID}, &stats); err != nil {
			return err
		}
		if err := tx.Posts.Delete(ctx, postID); err != nil {
			return err
		}
		stats.posts = 1
		return nil
	})
	if err != nil {
		return err
	}
	stats.record()
	return nil
}

func (s *PostService) PostsByEvent(ctx context.Context, eventID uint) ([]*models.Post, error) {
	if _, err := s.store.Events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.Posts.ListByEvent(ctx, eventID)
}

// PostsByUser returns the user's own posts together with the posts of every
// event the user is an accepted registrant of, newest first.
func (s *PostService) PostsByUser(ctx context.Context, userID uint) ([]*models.Post, error) {
	if _, err := s.store.Users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	own, err := s.store.Posts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	eventIDs, err := s.store.Registrations.AcceptedEventIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(own))
	posts := make([]*models.Post, 0, len(own))
	for _, p := range own {
		seen[p.ID] = true
		posts = append(posts, p)
	}
	for _, eventID := range eventIDs {
		eventPosts, err := s.store.Posts.ListByEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		for _, p := range eventPosts {
			if !seen[p.ID] {
				seen[p.ID] = true
				posts = append(posts, p)
			}
		}
	}
	sortNewestFirst(posts)
	return posts, nil
}

// GlobalFeed lists posts that belong to no event.
func (s *PostService) GlobalFeed(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	return s.store.Posts.ListFeed(ctx, nil, in.page())
}

// NewsFeed is the global feed merged with the posts of the user's accepted
// events.
func (s *PostService) NewsFeed(ctx context.Context, userID uint, in ListPostsInput) ([]*models.Post, error) {
	eventIDs, err := s.store.Registrations.AcceptedEventIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.Posts.ListFeed(ctx, eventIDs, in.page())
}

func sortNewestFirst(posts []*models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
