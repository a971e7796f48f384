package models

import "time"

// Post is a community board entry.
type Post struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	AuthorID uint `json:"authorID" gorm:"not null;index"`
	Author   User `json:"author" gorm:"foreignKey:AuthorID"`

	Title   string `json:"title" gorm:"size:200"`
	Content string `json:"content" gorm:"type:text"`

	Comments []PostComment `json:"comments" gorm:"foreignKey:PostID"`
	Likes    []PostLike    `json:"likes" gorm:"foreignKey:PostID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type PostComment struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	PostID uint `json:"postID" gorm:"not null;index"`

	AuthorID uint `json:"authorID" gorm:"not null;index"`
	Author   User `json:"author" gorm:"foreignKey:AuthorID"`

	Content string `json:"content" gorm:"size:1000"`

	CreatedAt time.Time `json:"createdAt"`
}

type PostLike struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	PostID uint `json:"postID" gorm:"not null;index:idx_post_like,unique"`
	UserID uint `json:"userID" gorm:"not null;index:idx_post_like,unique"`

	CreatedAt time.Time `json:"createdAt"`
}
