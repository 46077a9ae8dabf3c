package model

import (
	"encoding/json"
	"time"
)

type BlogPostStatus string

const (
	BlogDraft     BlogPostStatus = "draft"
	BlogPublished BlogPostStatus = "published"
)

// swagger:model BlogPost
type BlogPost struct {
	BaseModel
	Slug        string          `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Excerpt     string          `gorm:"type:text" json:"excerpt"`
	Content     string          `gorm:"type:longtext" json:"content,omitempty"`
	Keywords    json.RawMessage `gorm:"type:json" json:"keywords"` // JSON: []string
	Topic       string          `gorm:"size:100;index" json:"topic"`
	ReadTime    int             `gorm:"default:0" json:"readTime"` // 分钟
	Status      BlogPostStatus  `gorm:"size:20;default:'draft';index" json:"status"`
	PublishedAt *time.Time      `gorm:"index" json:"publishedAt,omitempty"`
}

func (BlogPost) TableName() string {
	return "blog_posts"
}
