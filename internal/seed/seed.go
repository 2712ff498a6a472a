// Package seed populates a development database with fake events, members
// and engagement. Everything is written through the services, so counters
// and notifications come out exactly as real traffic would leave them.
package seed

import (
	"context"
	"fmt"
	"log"
	"time"

	"eventhub/internal/models"
	"eventhub/internal/repository"
	"eventhub/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	NumHosts        int
	NumEvents       int
	PostsPerEvent   int
	CommentsPerPost int
	GlobalPosts     int
	// RandSeed makes a run reproducible; zero seeds from the clock.
	RandSeed int64
}

// DefaultOptions is a small but lively data set.
func DefaultOptions() Options {
	return Options{
		NumUsers:        30,
		NumHosts:        4,
		NumEvents:       10,
		PostsPerEvent:   3,
		CommentsPerPost: 4,
		GlobalPosts:     8,
	}
}

// Summary counts what a run created.
type Summary struct {
	Users         int
	Events        int
	Accepted      int
	Registrations int
	Posts         int
	DeletedPosts  int
	Comments      int
	Likes         int
}

// Seeder drives the services with fake data.
type Seeder struct {
	db    *gorm.DB
	store *repository.Store
	faker *gofakeit.Faker
	opts  Options

	events        *service.EventService
	registrations *service.RegistrationService
	posts         *service.PostService
	comments      *service.CommentService
	likes         *service.LikeService
}

// NewSeeder creates a Seeder. notifier receives the notifications the
// services emit while seeding.
func NewSeeder(db *gorm.DB, notifier service.Notifier, opts Options) *Seeder {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	store := repository.NewStore(db)
	return &Seeder{
		db:            db,
		store:         store,
		faker:         gofakeit.New(seed),
		opts:          opts,
		events:        service.NewEventService(store, notifier, false),
		registrations: service.NewRegistrationService(store, notifier),
		posts:         service.NewPostService(store, notifier),
		comments:      service.NewCommentService(store),
		likes:         service.NewLikeService(store, notifier),
	}
}

// ClearAll deletes every seeded table, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tables := []any{
		&models.LikeComment{},
		&models.LikePost{},
		&models.Comment{},
		&models.Post{},
		&models.EventUser{},
		&models.Event{},
		&models.PushSubscription{},
		&models.Notification{},
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
				return fmt.Errorf("clear %T: %w", table, err)
			}
		}
		return tx.Unscoped().Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{}).Error
	})
}

// Run seeds users, events, registrations and content.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{}

	admin, err := s.createUser(ctx, models.RoleAdmin, 0)
	if err != nil {
		return nil, err
	}
	hosts := make([]*models.User, 0, s.opts.NumHosts)
	for i := 0; i < s.opts.NumHosts; i++ {
		u, err := s.createUser(ctx, models.RoleHost, i+1)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, u)
	}
	members := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		u, err := s.createUser(ctx, models.RoleUser, s.opts.NumHosts+i+1)
		if err != nil {
			return nil, err
		}
		members = append(members, u)
	}
	sum.Users = 1 + len(hosts) + len(members)
	log.Printf("✓ %d users created", sum.Users)

	if len(hosts) == 0 {
		return sum, nil
	}

	adminPrincipal := models.Principal{ID: admin.ID, Role: admin.Role}
	for i := 0; i < s.opts.NumEvents; i++ {
		host := hosts[s.faker.IntRange(0, len(hosts)-1)]
		event, err := s.events.CreateEvent(ctx, host.ID, s.eventInput())
		if err != nil {
			return nil, fmt.Errorf("create event: %w", err)
		}
		sum.Events++

		// Roughly a quarter of the events stay in the approval queue.
		if s.faker.IntRange(1, 4) == 1 {
			continue
		}
		if _, err := s.events.AcceptEvent(ctx, event.ID); err != nil {
			return nil, fmt.Errorf("accept event %d: %w", event.ID, err)
		}
		sum.Accepted++

		attendees, err := s.register(ctx, event, members, sum)
		if err != nil {
			return nil, err
		}
		if err := s.engage(ctx, event, append(attendees, host), adminPrincipal, sum); err != nil {
			return nil, err
		}
	}

	everyone := append(append([]*models.User{admin}, hosts...), members...)
	for i := 0; i < s.opts.GlobalPosts; i++ {
		author := everyone[s.faker.IntRange(0, len(everyone)-1)]
		post, err := s.posts.CreatePost(ctx, service.CreatePostInput{
			UserID:   author.ID,
			Content:  s.faker.Paragraph(1, 3, 12, " "),
			ImageURL: s.imageURL(),
		})
		if err != nil {
			return nil, fmt.Errorf("create global post: %w", err)
		}
		sum.Posts++
		if err := s.discuss(ctx, post, everyone, sum); err != nil {
			return nil, err
		}
	}

	log.Printf("✓ %d events (%d accepted), %d registrations", sum.Events, sum.Accepted, sum.Registrations)
	log.Printf("✓ %d posts, %d comments, %d likes", sum.Posts, sum.Comments, sum.Likes)
	return sum, nil
}

func (s *Seeder) createUser(ctx context.Context, role models.Role, n int) (*models.User, error) {
	u := &models.User{
		Username: fmt.Sprintf("%s_%d", s.faker.Username(), n),
		Email:    fmt.Sprintf("user%d.%s", n, s.faker.Email()),
		Role:     role,
	}
	if err := s.store.Users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

var eventTypes = []string{"meetup", "workshop", "concert", "sports", "conference", "social"}

func (s *Seeder) eventInput() service.EventInput {
	start := time.Now().Add(time.Duration(s.faker.IntRange(2, 60*24)) * time.Hour).Truncate(time.Hour)
	end := start.Add(time.Duration(s.faker.IntRange(1, 6)) * time.Hour)
	return service.EventInput{
		Type:        s.faker.RandomString(eventTypes),
		Title:       s.faker.Sentence(4),
		StartTime:   start,
		EndTime:     &end,
		Location:    s.faker.City(),
		Description: s.faker.Paragraph(2, 3, 10, " "),
		ImageURL:    s.imageURL(),
	}
}

func (s *Seeder) imageURL() string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/800/600", s.faker.UUID())
}

// register signs up a random subset of members and lets the host accept
// most of them. It returns the accepted attendees.
func (s *Seeder) register(ctx context.Context, event *models.Event, members []*models.User, sum *Summary) ([]*models.User, error) {
	if len(members) == 0 {
		return nil, nil
	}
	manager := models.Principal{ID: event.ManagerID, Role: models.RoleHost}
	var accepted []*models.User
	for _, m := range members {
		if !s.faker.Bool() {
			continue
		}
		reg, created, err := s.registrations.Register(ctx, m.ID, event.ID)
		if err != nil {
			return nil, fmt.Errorf("register user %d: %w", m.ID, err)
		}
		if created {
			sum.Registrations++
		}
		if s.faker.IntRange(1, 3) == 1 {
			continue
		}
		if _, err := s.registrations.Accept(ctx, manager, reg.ID); err != nil {
			return nil, fmt.Errorf("accept registration %d: %w", reg.ID, err)
		}
		accepted = append(accepted, m)
	}
	return accepted, nil
}

func (s *Seeder) engage(ctx context.Context, event *models.Event, authors []*models.User, admin models.Principal, sum *Summary) error {
	eventID := event.ID
	var created []*models.Post
	for i := 0; i < s.opts.PostsPerEvent; i++ {
		author := authors[s.faker.IntRange(0, len(authors)-1)]
		post, err := s.posts.CreatePost(ctx, service.CreatePostInput{
			UserID:  author.ID,
			EventID: &eventID,
			Content: s.faker.Paragraph(1, 2, 12, " "),
		})
		if err != nil {
			return fmt.Errorf("create event post: %w", err)
		}
		sum.Posts++
		created = append(created, post)
		if err := s.discuss(ctx, post, authors, sum); err != nil {
			return err
		}
	}

	// Occasionally remove the newest post as an admin.
	if len(created) > 1 && s.faker.IntRange(1, 5) == 1 {
		victim := created[len(created)-1]
		if err := s.posts.DeletePost(ctx, admin, victim.ID); err != nil {
			return fmt.Errorf("delete post %d: %w", victim.ID, err)
		}
		sum.DeletedPosts++
	}
	return nil
}

// discuss adds comments, replies and likes to a post.
func (s *Seeder) discuss(ctx context.Context, post *models.Post, people []*models.User, sum *Summary) error {
	var thread []*models.Comment
	for i := 0; i < s.opts.CommentsPerPost; i++ {
		author := people[s.faker.IntRange(0, len(people)-1)]
		in := service.CreateCommentInput{
			UserID:  author.ID,
			PostID:  post.ID,
			Content: s.faker.Sentence(s.faker.IntRange(4, 14)),
		}
		if len(thread) > 0 && s.faker.Bool() {
			parent := thread[s.faker.IntRange(0, len(thread)-1)]
			in.ParentID = &parent.ID
		}
		c, err := s.comments.CreateComment(ctx, in)
		if err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		thread = append(thread, c)
		sum.Comments++
	}

	for _, u := range people {
		if s.faker.IntRange(1, 3) == 1 {
			if _, err := s.likes.ToggleLikePost(ctx, u.ID, post.ID); err != nil {
				return fmt.Errorf("like post: %w", err)
			}
			sum.Likes++
		}
		if len(thread) > 0 && s.faker.IntRange(1, 4) == 1 {
			c := thread[s.faker.IntRange(0, len(thread)-1)]
			if _, err := s.likes.ToggleLikeComment(ctx, u.ID, c.ID); err != nil {
				return fmt.Errorf("like comment: %w", err)
			}
			sum.Likes++
		}
	}
	return nil
}
