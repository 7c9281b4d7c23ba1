package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"strings"
	"sync"
	"testing"

	"socialgraph/internal/database"
	"socialgraph/internal/models"
	"socialgraph/internal/notifications"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Password: "hash", Name: email}
	require.NoError(t, db.Create(u).Error)
	return u
}

func assertAppError(t *testing.T, err error, status, domainCode int) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	require.Equal(t, status, appErr.Status, "status")
	if domainCode != 0 {
		require.Equal(t, domainCode, appErr.DomainCode, "domain code")
	}
}

type publishedEvent struct {
	userID uint
	event  notifications.Event
}

type eventRecorder struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (r *eventRecorder) PublishEvent(_ context.Context, userID uint, ev notifications.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{userID: userID, event: ev})
	return r.err
}

// fakeStorage returns a URL per file name. Names listed in fail error out.
type fakeStorage struct {
	mu      sync.Mutex
	fail    map[string]bool
	uploads []string
}

func (f *fakeStorage) UploadFile(_ context.Context, file *multipart.FileHeader, prefix string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[file.Filename] {
		return "", errors.New("disk full")
	}
	url := "/" + prefix + "/" + file.Filename
	f.uploads = append(f.uploads, url)
	return url, nil
}

const mp4Header = "\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom"

func pngBytes() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// files builds one upload per name: MP4 content for .mp4 names, PNG otherwise.
func files(names ...string) []*multipart.FileHeader {
	out := make([]*multipart.FileHeader, len(names))
	for i, n := range names {
		content := pngBytes()
		if strings.HasSuffix(n, ".mp4") {
			content = []byte(mp4Header)
		}
		out[i] = upload(n, content)
	}
	return out
}

func upload(name string, content []byte) *multipart.FileHeader {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		panic(err)
	}
	if _, err := part.Write(content); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		panic(err)
	}
	return form.File["file"][0]
}

type userRepoStub struct {
	getByIDFn      func(context.Context, uint) (*models.User, error)
	getByEmailFn   func(context.Context, string) (*models.User, error)
	createFn       func(context.Context, *models.User) error
	updateFieldsFn func(context.Context, uint, map[string]any) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	return s.updateFieldsFn(ctx, id, fields)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:      func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:   func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:       func(context.Context, *models.User) error { return nil },
		updateFieldsFn: func(context.Context, uint, map[string]any) error { return nil },
	}
}

type friendRepoStub struct {
	createFn              func(context.Context, *models.FriendRequest) error
	findDirectedFn        func(context.Context, uint, uint) (*models.FriendRequest, error)
	findEitherDirectionFn func(context.Context, uint, uint) (*models.FriendRequest, error)
	findAcceptedFn        func(context.Context, uint, uint) (*models.FriendRequest, error)
	transitionStatusFn    func(context.Context, *models.FriendRequest, models.FriendStatus, ...models.FriendStatus) (bool, error)
	listFriendsFn         func(context.Context, uint) ([]models.FriendRequest, error)
	listIncomingFn        func(context.Context, uint) ([]models.FriendRequest, error)
	listOutgoingFn        func(context.Context, uint) ([]models.FriendRequest, error)
}

func (s *friendRepoStub) Create(ctx context.Context, req *models.FriendRequest) error {
	return s.createFn(ctx, req)
}
func (s *friendRepoStub) FindDirected(ctx context.Context, a, b uint) (*models.FriendRequest, error) {
	return s.findDirectedFn(ctx, a, b)
}
func (s *friendRepoStub) FindEitherDirection(ctx context.Context, a, b uint) (*models.FriendRequest, error) {
	return s.findEitherDirectionFn(ctx, a, b)
}
func (s *friendRepoStub) FindAccepted(ctx context.Context, a, b uint) (*models.FriendRequest, error) {
	return s.findAcceptedFn(ctx, a, b)
}
func (s *friendRepoStub) TransitionStatus(ctx context.Context, req *models.FriendRequest, to models.FriendStatus, from ...models.FriendStatus) (bool, error) {
	return s.transitionStatusFn(ctx, req, to, from...)
}
func (s *friendRepoStub) ListFriends(ctx context.Context, id uint) ([]models.FriendRequest, error) {
	return s.listFriendsFn(ctx, id)
}
func (s *friendRepoStub) ListIncoming(ctx context.Context, id uint) ([]models.FriendRequest, error) {
	return s.listIncomingFn(ctx, id)
}
func (s *friendRepoStub) ListOutgoing(ctx context.Context, id uint) ([]models.FriendRequest, error) {
	return s.listOutgoingFn(ctx, id)
}

func noopFriendRepo() *friendRepoStub {
	return &friendRepoStub{
		createFn:              func(context.Context, *models.FriendRequest) error { return nil },
		findDirectedFn:        func(context.Context, uint, uint) (*models.FriendRequest, error) { return nil, nil },
		findEitherDirectionFn: func(context.Context, uint, uint) (*models.FriendRequest, error) { return nil, nil },
		findAcceptedFn:        func(context.Context, uint, uint) (*models.FriendRequest, error) { return nil, nil },
		transitionStatusFn: func(context.Context, *models.FriendRequest, models.FriendStatus, ...models.FriendStatus) (bool, error) {
			return true, nil
		},
		listFriendsFn:  func(context.Context, uint) ([]models.FriendRequest, error) { return nil, nil },
		listIncomingFn: func(context.Context, uint) ([]models.FriendRequest, error) { return nil, nil },
		listOutgoingFn: func(context.Context, uint) ([]models.FriendRequest, error) { return nil, nil },
	}
}
