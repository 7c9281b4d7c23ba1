package models

import "time"

// Comment is a reply on a post, optionally answering another comment.
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PostID     uint      `gorm:"not null;index" json:"post_id"`
	AuthorID   uint      `gorm:"not null;index" json:"author_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	AnsweredID *uint     `gorm:"index" json:"answered_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// TableName specifies the database table name for the Comment model.
func (Comment) TableName() string {
	return "comments"
}
