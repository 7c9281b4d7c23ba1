package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix  = "user:%d"
	BlockKeyPrefix = "block:%d:%d"
)

const (
	UserTTL  = 5 * time.Minute
	BlockTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// BlockKey caches whether blocker has blocked blocked.
func BlockKey(blockerID, blockedID uint) string {
	return fmt.Sprintf(BlockKeyPrefix, blockerID, blockedID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateBlock(ctx context.Context, blockerID, blockedID uint) {
	Invalidate(ctx, BlockKey(blockerID, blockedID))
}
