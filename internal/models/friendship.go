package models

import "time"

// FriendStatus is the state of a directed friend request row.
type FriendStatus string

const (
	FriendStatusSendReq  FriendStatus = "SEND_REQ"
	FriendStatusAccepted FriendStatus = "ACCEPTED"
	FriendStatusRefused  FriendStatus = "REFUSED"
	FriendStatusCancel   FriendStatus = "CANCEL"
)

// FriendRequest is a single directed edge sender -> receiver. A friendship
// between two users is one accepted row in either direction.
type FriendRequest struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	SenderID   uint         `gorm:"not null;uniqueIndex:idx_friend_requests_pair" json:"sender_id"`
	ReceiverID uint         `gorm:"not null;uniqueIndex:idx_friend_requests_pair;index" json:"receiver_id"`
	Status     FriendStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Version    uint         `gorm:"not null;default:1" json:"-"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`

	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}

// TableName specifies the database table name for the FriendRequest model.
func (FriendRequest) TableName() string {
	return "friend_requests"
}

// Peer returns the other side of the edge relative to userID.
func (f *FriendRequest) Peer(userID uint) *User {
	if f.SenderID == userID {
		return f.Receiver
	}
	return f.Sender
}

// FriendStatusView is the answer to "are a and b friends".
type FriendStatusView struct {
	IsFriend bool         `json:"is_friend"`
	Status   FriendStatus `json:"status,omitempty"`
	SenderID uint         `json:"sender_id,omitempty"`
}

// FriendView is one entry of a friends list.
type FriendView struct {
	PublicUser
	CreatedAt time.Time `json:"created_at"`
}

// FriendRequestView is one pending incoming or outgoing request.
type FriendRequestView struct {
	ID        uint       `json:"id"`
	User      PublicUser `json:"user"`
	CreatedAt time.Time  `json:"created_at"`
}
