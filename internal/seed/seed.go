package seed

import (
	"fmt"
	"log"
	"strings"

	"socialgraph/internal/models"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers int
	NumPosts int
	// SkipBcrypt stores the plaintext password; only for fast local runs.
	SkipBcrypt bool
	MaxDays    int
	RandSeed   int64
}

// Stats reports what a seeding run created.
type Stats struct {
	Users       int
	Friendships int
	PendingReqs int
	Blocks      int
	Posts       int
	Likes       int
	Comments    int
}

// Seeder populates a database with a connected social graph.
type Seeder struct {
	db      *gorm.DB
	factory *Factory

	blocked map[[2]uint]bool
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{
		db:      db,
		factory: NewFactory(db, opts),
		blocked: make(map[[2]uint]bool),
	}
}

var baseAccounts = []string{"alice", "bob", "carol"}

// Run seeds opts.NumUsers users, their relationships and opts.NumPosts posts.
func (s *Seeder) Run() (Stats, error) {
	var stats Stats
	opts := s.factory.opts

	users, err := s.SeedUsers(opts.NumUsers)
	if err != nil {
		return stats, fmt.Errorf("failed to create users: %w", err)
	}
	stats.Users = len(users)
	log.Printf("✓ %d users created", len(users))

	if err := s.SeedSocialMesh(users, &stats); err != nil {
		return stats, fmt.Errorf("failed to create social mesh: %w", err)
	}
	log.Printf("✓ %d friendships, %d pending requests, %d blocks", stats.Friendships, stats.PendingReqs, stats.Blocks)

	if err := s.SeedEngagement(users, opts.NumPosts, &stats); err != nil {
		return stats, fmt.Errorf("failed to create engagement: %w", err)
	}
	log.Printf("✓ %d posts, %d likes, %d comments", stats.Posts, stats.Likes, stats.Comments)

	return stats, nil
}

// SeedUsers creates count verified users. The first few get stable emails
// such as alice@example.com.
func (s *Seeder) SeedUsers(count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		var overrides []func(*models.User)
		if i < len(baseAccounts) {
			handle := baseAccounts[i]
			overrides = append(overrides, func(u *models.User) {
				u.Email = handle + "@example.com"
				u.Name = strings.ToUpper(handle[:1]) + handle[1:]
			})
		}
		user, err := s.factory.CreateUser(overrides...)
		if err != nil {
			return nil, err
		}
		users = append(users, user)

		if (i+1)%100 == 0 {
			log.Printf("Created %d users...", i+1)
		}
	}
	return users, nil
}

// SeedSocialMesh creates at most one friend request row per unordered pair
// and a sparse set of block edges between users that are not friends.
func (s *Seeder) SeedSocialMesh(users []*models.User, stats *Stats) error {
	faker := s.factory.faker
	for i := 0; i < len(users); i++ {
		for j := i + 1; j < len(users); j++ {
			a, b := users[i], users[j]
			if faker.Bool() {
				a, b = b, a
			}

			roll := faker.Number(1, 100)
			var status models.FriendStatus
			switch {
			case roll <= 35:
				status = models.FriendStatusAccepted
				stats.Friendships++
			case roll <= 45:
				status = models.FriendStatusSendReq
				stats.PendingReqs++
			case roll <= 50:
				status = models.FriendStatusRefused
			case roll <= 53:
				status = models.FriendStatusCancel
			case roll <= 56:
				if err := s.factory.CreateBlock(a, b); err != nil {
					return err
				}
				s.blocked[[2]uint{a.ID, b.ID}] = true
				stats.Blocks++
				continue
			default:
				continue
			}
			if _, err := s.factory.CreateFriendRequest(a, b, status); err != nil {
				return err
			}
		}
	}
	return nil
}

// SeedEngagement creates numPosts posts and lets other users like and
// comment on them. Users never engage with a post when either side blocks
// the other.
func (s *Seeder) SeedEngagement(users []*models.User, numPosts int, stats *Stats) error {
	if len(users) == 0 {
		return nil
	}
	faker := s.factory.faker

	for i := 0; i < numPosts; i++ {
		author := users[faker.Number(0, len(users)-1)]
		post, err := s.factory.CreatePost(author)
		if err != nil {
			return err
		}
		stats.Posts++

		var last *models.Comment
		for _, user := range users {
			if user.ID == author.ID || s.isBlocked(user.ID, author.ID) {
				continue
			}
			if faker.Number(1, 100) <= 30 {
				if err := s.factory.CreateLike(user, post); err != nil {
					return err
				}
				stats.Likes++
			}
			if faker.Number(1, 100) <= 10 {
				var answered *models.Comment
				if last != nil && faker.Bool() {
					answered = last
				}
				comment, err := s.factory.CreateComment(user, post, answered)
				if err != nil {
					return err
				}
				last = comment
				stats.Comments++
			}
		}

		if (i+1)%100 == 0 {
			log.Printf("Created %d posts...", i+1)
		}
	}
	return nil
}

func (s *Seeder) isBlocked(a, b uint) bool {
	return s.blocked[[2]uint{a, b}] || s.blocked[[2]uint{b, a}]
}

// ClearAll deletes every seeded row, children first.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	tables := []interface{}{
		&models.Comment{},
		&models.Like{},
		&models.Media{},
		&models.Post{},
		&models.BlockEdge{},
		&models.FriendRequest{},
		&models.User{},
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
