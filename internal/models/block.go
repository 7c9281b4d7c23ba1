package models

import "time"

// BlockAction selects the SetBlock mutation.
type BlockAction string

const (
	BlockActionBlock   BlockAction = "BLOCK"
	BlockActionUnblock BlockAction = "UNBLOCK"
)

// Valid reports whether a is a known action.
func (a BlockAction) Valid() bool {
	return a == BlockActionBlock || a == BlockActionUnblock
}

// BlockEdge records that Blocker has blocked Blocked. (A->B) says nothing about (B->A).
type BlockEdge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BlockerID uint      `gorm:"not null;uniqueIndex:idx_block_edges_pair" json:"blocker_id"`
	BlockedID uint      `gorm:"not null;uniqueIndex:idx_block_edges_pair;index" json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`

	Blocked *User `gorm:"foreignKey:BlockedID" json:"blocked,omitempty"`
}

// TableName specifies the database table name for the BlockEdge model.
func (BlockEdge) TableName() string {
	return "block_edges"
}
