package models

import (
	"time"
)

type User struct {
	ID             uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username       string `gorm:"uniqueIndex;not null"     json:"username"`
	Email          string `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash   string `gorm:"not null"                 json:"-"`
	IsStaff        bool   `gorm:"default:false"            json:"is_staff"`
	IsSuperuser    bool   `gorm:"default:false"            json:"is_superuser"`
	IsBlocked      bool   `gorm:"default:false"            json:"is_blocked"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profile_picture"`
}

type Post struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"size:200;not null"        json:"title"`
	Content   string    `gorm:"not null"                 json:"content"`
	ImageURL  string    `json:"image"`
	AuthorID  uint      `gorm:"index;not null"           json:"-"`
	Author    User      `gorm:"foreignKey:AuthorID"      json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ReadCount uint      `gorm:"default:0"                json:"read_count"`
}

type Comment struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID     uint      `gorm:"index;not null"           json:"post"`
	AuthorID   uint      `gorm:"index;not null"           json:"-"`
	Author     User      `gorm:"foreignKey:AuthorID"      json:"-"`
	Content    string    `gorm:"not null"                 json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	IsApproved bool      `gorm:"default:false"            json:"is_approved"`
}

// One like/unlike row per user per post.
type Like struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"              json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_user" json:"post"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_user" json:"-"`
	User      User      `gorm:"foreignKey:UserID"                  json:"-"`
	IsLike    bool      `json:"is_like"`
	CreatedAt time.Time `json:"created_at"`
}
