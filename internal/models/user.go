// Package models defines the persisted entities, errors and response shapes.
package models

import "time"

// User is the identity record owned by the identity directory.
type User struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Email      string     `gorm:"uniqueIndex;not null" json:"email"`
	Password   string     `gorm:"not null" json:"-"`
	Name       string     `gorm:"size:100" json:"name"`
	Avatar     string     `json:"avatar"`
	Cover      string     `json:"cover"`
	Birthday   *time.Time `json:"birthday,omitempty"`
	Gender     string     `gorm:"size:20" json:"gender,omitempty"`
	IsVerified bool       `gorm:"default:false" json:"is_verified"`
	VerifyCode string     `gorm:"size:16" json:"-"`
	ExpiryTime *time.Time `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// PublicUser is the projection of a user exposed in lists.
type PublicUser struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// ToPublicUser projects u to its public fields. A nil user yields the zero value.
func ToPublicUser(u *User) PublicUser {
	if u == nil {
		return PublicUser{}
	}
	return PublicUser{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}
