package models

import "time"

// MediaType distinguishes image and video attachments.
type MediaType string

const (
	MediaTypeImage MediaType = "IMAGE"
	MediaTypeVideo MediaType = "VIDEO"
)

// MaxPostImages is the largest number of images a post may carry.
const MaxPostImages = 4

// Storage path prefixes for post media.
const (
	PostImagePath = "post/images"
	PostVideoPath = "post/videos"
)

// Post is authored content with ordered media.
type Post struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	AuthorID       uint      `gorm:"not null;index" json:"author_id"`
	Content        string    `gorm:"type:text" json:"content"`
	Status         string    `gorm:"size:100" json:"status"`
	IsBanned       bool      `gorm:"default:false" json:"is_banned"`
	IsBlockComment bool      `gorm:"default:false" json:"is_block_comment"`
	NumLikes       int       `gorm:"default:0" json:"num_likes"`
	NumComments    int       `gorm:"default:0" json:"num_comments"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"modified_at"`

	Author *User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Medias []Media `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"medias"`
	Likes  []Like  `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the database table name for the Post model.
func (Post) TableName() string {
	return "posts"
}

// CountMedia returns how many attachments of type t the post has.
func (p *Post) CountMedia(t MediaType) int {
	n := 0
	for _, m := range p.Medias {
		if m.Type == t {
			n++
		}
	}
	return n
}

// Media is one attachment. Order is 1-based within the post.
type Media struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	URL       string    `gorm:"not null" json:"url"`
	Type      MediaType `gorm:"type:varchar(10);not null" json:"type"`
	Order     int       `gorm:"column:sort_order;not null" json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the database table name for the Media model.
func (Media) TableName() string {
	return "medias"
}

// Like is a (user, post) edge. The pair is unique.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the database table name for the Like model.
func (Like) TableName() string {
	return "likes"
}

// PostPermission names an action checked against a post.
type PostPermission string

const (
	PermissionEdit   PostPermission = "EDIT"
	PermissionDelete PostPermission = "DELETE"
)

// PostInfo holds the viewer-dependent fields derived for a post.
type PostInfo struct {
	IsLiked    bool `json:"is_liked"`
	IsBlocked  bool `json:"is_blocked"`
	CanEdit    bool `json:"can_edit"`
	Banned     bool `json:"banned"`
	CanComment bool `json:"can_comment"`
}

// PostView is a post projection plus its viewer-dependent fields.
type PostView struct {
	*Post
	PostInfo
}

// LikeResult is returned by the like toggle.
type LikeResult struct {
	Liked    bool `json:"liked"`
	NumLikes int  `json:"num_likes"`
}
