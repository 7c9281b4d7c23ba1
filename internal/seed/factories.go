// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"strings"
	"time"

	"socialgraph/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the plaintext password of every seeded account.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker

	passwordHash string
	seq          int
}

// NewFactory creates a Factory bound to db. A zero opts.RandSeed seeds from
// the clock.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed)}
}

func (f *Factory) password() (string, error) {
	if f.opts.SkipBcrypt {
		return DefaultPassword, nil
	}
	if f.passwordHash == "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		f.passwordHash = string(hashed)
	}
	return f.passwordHash, nil
}

// BuildUser constructs a verified sample user without persisting it.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.password()
	if err != nil {
		return nil, err
	}
	f.seq++
	handle := strings.ToLower(f.faker.Username())
	birthday := f.faker.DateRange(time.Now().AddDate(-60, 0, 0), time.Now().AddDate(-16, 0, 0))

	user := &models.User{
		Email:      fmt.Sprintf("%s.%d@example.com", handle, f.seq),
		Password:   hash,
		Name:       f.faker.Name(),
		Avatar:     fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		Cover:      fmt.Sprintf("https://picsum.photos/seed/%s/1200/400", f.faker.UUID()),
		Birthday:   &birthday,
		Gender:     strings.ToLower(f.faker.Gender()),
		IsVerified: true,
	}
	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// CreateUser constructs and persists a sample user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user, err := f.BuildUser(overrides...)
	if err != nil {
		return nil, err
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post for author with up to MaxPostImages images and
// a created_at spread over the last MaxDays days. It is not persisted.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	age := time.Duration(f.faker.Number(0, maxDays*24*60)) * time.Minute

	post := &models.Post{
		AuthorID:  author.ID,
		Content:   f.faker.Paragraph(1, 3, 8, "\n"),
		Status:    f.faker.RandomString([]string{"", "happy", "excited", "grateful", "tired"}),
		CreatedAt: time.Now().Add(-age),
	}
	for i := 1; i <= f.faker.Number(0, models.MaxPostImages); i++ {
		post.Medias = append(post.Medias, models.Media{
			URL:   fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID()),
			Type:  models.MediaTypeImage,
			Order: i,
		})
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost constructs and persists a sample post together with its media.
func (f *Factory) CreatePost(author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, overrides...)
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment by author on post, optionally answering
// another comment.
func (f *Factory) CreateComment(author *models.User, post *models.Post, answered *models.Comment) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: author.ID,
		Content:  f.faker.Sentence(f.faker.Number(3, 14)),
	}
	if answered != nil {
		comment.AnsweredID = &answered.ID
	}
	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("num_comments", gorm.Expr("num_comments + ?", 1)).Error
	})
	if err != nil {
		return nil, err
	}
	post.NumComments++
	return comment, nil
}

// CreateLike persists a like from user on post and bumps the post counter.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Like{UserID: user.ID, PostID: post.ID}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("num_likes", gorm.Expr("num_likes + ?", 1)).Error
	})
	if err != nil {
		return err
	}
	post.NumLikes++
	return nil
}

// CreateFriendRequest persists a directed request row with the given status.
func (f *Factory) CreateFriendRequest(sender, receiver *models.User, status models.FriendStatus) (*models.FriendRequest, error) {
	req := &models.FriendRequest{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Status:     status,
		Version:    1,
	}
	if err := f.db.Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

// CreateBlock persists a block edge blocker -> blocked.
func (f *Factory) CreateBlock(blocker, blocked *models.User) error {
	return f.db.Create(&models.BlockEdge{BlockerID: blocker.ID, BlockedID: blocked.ID}).Error
}
