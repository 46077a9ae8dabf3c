package repository

import (
	"encoding/json"
	"errors"
	"math"
	"time"

	"fypquiz_backend/internal/model"
	"fypquiz_backend/internal/util"

	"gorm.io/gorm"
)

type BlogPostRepository struct {
	DB *gorm.DB
}

func NewBlogPostRepository(db *gorm.DB) *BlogPostRepository {
	return &BlogPostRepository{DB: db}
}

func (r *BlogPostRepository) Create(post *model.BlogPost) error {
	return r.DB.Create(post).Error
}

func (r *BlogPostRepository) SlugExists(slug string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.BlogPost{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *BlogPostRepository) FindBySlug(slug string) (*model.BlogPost, error) {
	var post model.BlogPost
	err := r.DB.Where("slug = ? AND status = ?", slug, model.BlogPublished).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrBlogPostNotFound
	}
	return &post, err
}

// ListPublished 列表不带正文
func (r *BlogPostRepository) ListPublished(limit, offset int) ([]model.BlogPost, int64, error) {
	var posts []model.BlogPost
	var total int64

	db := r.DB.Model(&model.BlogPost{}).Where("status = ?", model.BlogPublished)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Omit("content").
		Order("published_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, total, err
}

// CountPublishedSince 统计某时间之后发布的文章数
func (r *BlogPostRepository) CountPublishedSince(since time.Time) (int64, error) {
	var count int64
	err := r.DB.Model(&model.BlogPost{}).
		Where("status = ? AND published_at >= ?", model.BlogPublished, since).
		Count(&count).Error
	return count, err
}

func (r *BlogPostRepository) LatestPublished() (*model.BlogPost, error) {
	var post model.BlogPost
	err := r.DB.Where("status = ?", model.BlogPublished).
		Order("published_at DESC").
		First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &post, err
}

// TopicCounts 各主题已发布数量
func (r *BlogPostRepository) TopicCounts() (map[string]int64, error) {
	var rows []struct {
		Topic string
		Count int64
	}
	err := r.DB.Model(&model.BlogPost{}).
		Select("topic, COUNT(*) AS count").
		Where("status = ?", model.BlogPublished).
		Group("topic").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Topic] = row.Count
	}
	return counts, nil
}

// BlogStats 文章统计
type BlogStats struct {
	TotalPosts      int64            `json:"totalPosts"`
	PublishedPosts  int64            `json:"publishedPosts"`
	DraftPosts      int64            `json:"draftPosts"`
	ThisWeekPosts   int64            `json:"thisWeekPosts"`
	AverageReadTime int              `json:"averageReadTime"`
	TotalKeywords   int              `json:"totalKeywords"`
	Topics          map[string]int64 `json:"topics"`
}

func (r *BlogPostRepository) Stats(weekStart time.Time) (*BlogStats, error) {
	stats := &BlogStats{}
	if err := r.DB.Model(&model.BlogPost{}).Count(&stats.TotalPosts).Error; err != nil {
		return nil, err
	}
	if err := r.DB.Model(&model.BlogPost{}).Where("status = ?", model.BlogPublished).Count(&stats.PublishedPosts).Error; err != nil {
		return nil, err
	}
	if err := r.DB.Model(&model.BlogPost{}).Where("status = ?", model.BlogDraft).Count(&stats.DraftPosts).Error; err != nil {
		return nil, err
	}
	week, err := r.CountPublishedSince(weekStart)
	if err != nil {
		return nil, err
	}
	stats.ThisWeekPosts = week

	var published []model.BlogPost
	if err := r.DB.Select("read_time", "keywords").Where("status = ?", model.BlogPublished).Find(&published).Error; err != nil {
		return nil, err
	}
	keywords := make(map[string]struct{})
	totalRead := 0
	for _, p := range published {
		totalRead += p.ReadTime
		var kws []string
		if len(p.Keywords) > 0 && json.Unmarshal(p.Keywords, &kws) == nil {
			for _, k := range kws {
				keywords[k] = struct{}{}
			}
		}
	}
	if len(published) > 0 {
		stats.AverageReadTime = int(math.Round(float64(totalRead) / float64(len(published))))
	}
	stats.TotalKeywords = len(keywords)

	if stats.Topics, err = r.TopicCounts(); err != nil {
		return nil, err
	}
	return stats, nil
}
