package database

import (
	"testing"

	"socialgraph/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestPersistentModels_IncludesRelationshipTables(t *testing.T) {
	var hasFriend, hasBlock bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *models.FriendRequest:
			hasFriend = true
		case *models.BlockEdge:
			hasBlock = true
		}
	}
	assert.True(t, hasFriend, "PersistentModels should include FriendRequest")
	assert.True(t, hasBlock, "PersistentModels should include BlockEdge")
}

func TestMigrate_CreatesUniquePairIndexes(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db))

	m := db.Migrator()
	assert.True(t, m.HasIndex(&models.FriendRequest{}, "idx_friend_requests_pair"))
	assert.True(t, m.HasIndex(&models.BlockEdge{}, "idx_block_edges_pair"))
	assert.True(t, m.HasIndex(&models.Like{}, "idx_likes_user_post"))

	require.NoError(t, db.Create(&models.User{Email: "a@e.com", Password: "x"}).Error)
	require.NoError(t, db.Create(&models.User{Email: "b@e.com", Password: "x"}).Error)
	require.NoError(t, db.Create(&models.FriendRequest{SenderID: 1, ReceiverID: 2, Status: models.FriendStatusSendReq}).Error)
	assert.Error(t, db.Create(&models.FriendRequest{SenderID: 1, ReceiverID: 2, Status: models.FriendStatusSendReq}).Error)
}
