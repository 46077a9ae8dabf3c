package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"fypquiz_backend/internal/config"
	"fypquiz_backend/internal/model"
	"fypquiz_backend/internal/repository"
	"fypquiz_backend/internal/util"
	"fypquiz_backend/pkg/logger"

	"go.uber.org/zap"
)

const (
	blogMaxTokens       = 4000
	blogExcerptChars    = 150
	wordsPerMinute      = 200
	blogGenerateTimeout = 3 * time.Minute
)

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces   = regexp.MustCompile(`\s+`)
	slugDashes   = regexp.MustCompile(`-+`)
	htmlTag      = regexp.MustCompile(`<[^>]*>`)
	weekdayNames = map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
		"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
		"saturday": time.Saturday,
	}
)

// BlogTemplate 文章选题，Topic 用于统计各选题发布次数
type BlogTemplate struct {
	Topic    string
	Title    string
	Keywords []string
	Outline  []string
}

var blogTemplates = []BlogTemplate{
	{
		Topic:    "gen-z-study-hacks",
		Title:    "5 Gen Z Study Hacks That Actually Work",
		Keywords: []string{"gen z", "study hacks", "best study methods", "college", "study tools"},
		Outline: []string{
			"Introduction to Gen Z study challenges",
			"Hack 1: TikTok-style learning techniques",
			"Hack 2: Micro-study sessions",
			"Hack 3: Visual learning methods",
			"Hack 4: Social learning approaches",
			"Hack 5: Technology integration",
			"How FYPQuiz implements these hacks",
		},
	},
	{
		Topic:    "tiktok-style-quizzes",
		Title:    "Why TikTok-Style Quizzes Help You Remember More",
		Keywords: []string{"tiktok-style quizzes", "memory retention", "study methods", "quiz apps for studying"},
		Outline: []string{
			"The science behind memory retention",
			"Why traditional study methods fail",
			"How TikTok-style learning works",
			"The psychology of short-form content",
			"Real-world examples and case studies",
			"How to create effective TikTok-style quizzes",
			"FYPQuiz's approach to engaging learning",
		},
	},
	{
		Topic:    "study-tools",
		Title:    "Best Study Tools for High School & College in 2025",
		Keywords: []string{"best study tools", "high school", "college", "study apps", "2025"},
		Outline: []string{
			"The evolution of study tools",
			"Digital vs traditional study methods",
			"Top study apps comparison",
			"AI-powered learning tools",
			"Personalized study approaches",
			"Future of education technology",
			"Why FYPQuiz leads the pack",
		},
	},
	{
		Topic:    "exam-guide",
		Title:    "How to Study for Exams: A Complete Guide for Students",
		Keywords: []string{"how to study for exams", "study methods", "exam preparation", "best study apps"},
		Outline: []string{
			"Understanding your learning style",
			"Creating effective study schedules",
			"Active vs passive learning techniques",
			"Memory techniques and mnemonics",
			"Technology-enhanced study methods",
			"Managing exam stress and anxiety",
			"Tools and apps for exam success",
		},
	},
	{
		Topic:    "generations",
		Title:    "Gen Z vs Millennials: Different Study Approaches That Work",
		Keywords: []string{"gen z", "millennials", "study approaches", "generation differences", "learning styles"},
		Outline: []string{
			"Understanding generational learning differences",
			"Millennial study habits and preferences",
			"Gen Z study habits and preferences",
			"Technology's role in learning evolution",
			"Adapting study methods for different generations",
			"Bridging the generational learning gap",
			"Universal study principles that work for all",
		},
	},
}

// Schedule 发布计划及当前是否应发布
type Schedule struct {
	PostsPerWeek    int       `json:"postsPerWeek"`
	PreferredDays   []string  `json:"preferredDays"`
	PreferredTime   string    `json:"preferredTime"`
	ShouldPublish   bool      `json:"shouldPublish"`
	NextPublishTime time.Time `json:"nextPublishTime"`
}

type PublishResult struct {
	Published       bool            `json:"published"`
	Message         string          `json:"message"`
	Post            *model.BlogPost `json:"post,omitempty"`
	NextPublishTime time.Time       `json:"nextPublishTime"`
}

type BlogList struct {
	Items []model.BlogPost `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
}

type BlogService struct {
	Repo   *repository.BlogPostRepository
	client CompletionClient

	mu  sync.RWMutex
	cfg config.BlogConfig

	now  func() time.Time
	intn func(int) int
}

func NewBlogService(repo *repository.BlogPostRepository, client CompletionClient, cfg config.BlogConfig) *BlogService {
	s := &BlogService{
		Repo:   repo,
		client: client,
		now:    time.Now,
		intn:   rand.Intn,
	}
	s.ApplyConfig(cfg)
	return s
}

func (s *BlogService) ApplyConfig(cfg config.BlogConfig) {
	if len(cfg.PreferredDays) == 0 {
		cfg.PreferredDays = []string{"monday", "wednesday", "friday"}
	}
	if _, _, ok := parseClock(cfg.PreferredTime); !ok {
		cfg.PreferredTime = "10:00"
	}
	if cfg.PostsPerWeek <= 0 {
		cfg.PostsPerWeek = 3
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *BlogService) config() config.BlogConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func parseClock(hhmm string) (int, int, bool) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

func preferredWeekdays(days []string) map[time.Weekday]bool {
	set := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		if wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(d))]; ok {
			set[wd] = true
		}
	}
	return set
}

// ShouldPublish 当天是发布日且已到发布时间
func ShouldPublish(now time.Time, days []string, hhmm string) bool {
	h, m, ok := parseClock(hhmm)
	if !ok || !preferredWeekdays(days)[now.Weekday()] {
		return false
	}
	return now.Hour() > h || (now.Hour() == h && now.Minute() >= m)
}

// NextPublishTime 严格晚于 now 的下一个发布时间点
func NextPublishTime(now time.Time, days []string, hhmm string) time.Time {
	h, m, ok := parseClock(hhmm)
	weekdays := preferredWeekdays(days)
	if !ok || len(weekdays) == 0 {
		return time.Time{}
	}
	for i := 0; i <= 7; i++ {
		d := now.AddDate(0, 0, i)
		at := time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, now.Location())
		if weekdays[at.Weekday()] && at.After(now) {
			return at
		}
	}
	return time.Time{}
}

func (s *BlogService) Schedule() Schedule {
	cfg := s.config()
	now := s.now()
	return Schedule{
		PostsPerWeek:    cfg.PostsPerWeek,
		PreferredDays:   cfg.PreferredDays,
		PreferredTime:   cfg.PreferredTime,
		ShouldPublish:   ShouldPublish(now, cfg.PreferredDays, cfg.PreferredTime),
		NextPublishTime: NextPublishTime(now, cfg.PreferredDays, cfg.PreferredTime),
	}
}

// Publish 到点且当天尚未发布、本周未达上限时生成并发布一篇文章
func (s *BlogService) Publish(ctx context.Context) (*PublishResult, error) {
	cfg := s.config()
	now := s.now()
	result := &PublishResult{NextPublishTime: NextPublishTime(now, cfg.PreferredDays, cfg.PreferredTime)}

	if !ShouldPublish(now, cfg.PreferredDays, cfg.PreferredTime) {
		result.Message = "Not time to publish yet"
		return result, nil
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := s.Repo.CountPublishedSince(dayStart)
	if err != nil {
		return nil, err
	}
	if today > 0 {
		result.Message = "Already published today"
		return result, nil
	}
	thisWeek, err := s.Repo.CountPublishedSince(dayStart.AddDate(0, 0, -int(now.Weekday())))
	if err != nil {
		return nil, err
	}
	if thisWeek >= int64(cfg.PostsPerWeek) {
		result.Message = "Weekly post limit reached"
		return result, nil
	}

	post, err := s.Generate(ctx)
	if err != nil {
		return nil, err
	}
	result.Published = true
	result.Post = post
	result.Message = "Blog post generated and published successfully"
	return result, nil
}

// pickTemplate 优先选发布次数最少的选题
func (s *BlogService) pickTemplate() BlogTemplate {
	counts, err := s.Repo.TopicCounts()
	if err != nil {
		logger.Log.Warn("Failed to load topic counts", zap.Error(err))
		return blogTemplates[s.intn(len(blogTemplates))]
	}
	var least []BlogTemplate
	lowest := int64(-1)
	for _, t := range blogTemplates {
		c := counts[t.Topic]
		switch {
		case lowest < 0 || c < lowest:
			lowest = c
			least = []BlogTemplate{t}
		case c == lowest:
			least = append(least, t)
		}
	}
	return least[s.intn(len(least))]
}

// Generate 按选题生成文章并直接发布
func (s *BlogService) Generate(ctx context.Context) (*model.BlogPost, error) {
	tpl := s.pickTemplate()

	ctx, cancel := context.WithTimeout(ctx, blogGenerateTimeout)
	defer cancel()
	content, err := s.client.Complete(ctx, CompletionRequest{
		SystemPrompt: blogSystemPrompt(tpl),
		UserPrompt:   blogUserPrompt(tpl),
		MaxTokens:    blogMaxTokens,
		Temperature:  0.7,
	})
	if err != nil {
		if isDeadline(ctx, err) {
			return nil, &util.TimeoutError{Op: "Blog generation", Limit: blogGenerateTimeout.String()}
		}
		return nil, &util.GenerationError{Stage: "blog", Err: err}
	}
	content = strings.TrimSpace(StripCodeFences(content))
	if content == "" {
		return nil, &util.GenerationError{Stage: "blog", Err: fmt.Errorf("empty content")}
	}

	slug, err := s.uniqueSlug(Slugify(tpl.Title))
	if err != nil {
		return nil, err
	}
	keywords, _ := json.Marshal(tpl.Keywords)
	now := s.now()
	post := &model.BlogPost{
		Slug:        slug,
		Title:       tpl.Title,
		Excerpt:     Excerpt(content),
		Content:     content,
		Keywords:    keywords,
		Topic:       tpl.Topic,
		ReadTime:    ReadTime(content),
		Status:      model.BlogPublished,
		PublishedAt: &now,
	}
	if err := s.Repo.Create(post); err != nil {
		return nil, err
	}
	logger.Log.Info("Blog post published",
		zap.String("slug", post.Slug),
		zap.String("topic", post.Topic),
		zap.Int("readTime", post.ReadTime),
	)
	return post, nil
}

// uniqueSlug 选题会重复，重名时追加日期和序号
func (s *BlogService) uniqueSlug(base string) (string, error) {
	candidate := base
	for i := 0; i < 20; i++ {
		exists, err := s.Repo.SlugExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%s", base, s.now().Format("2006-01-02"))
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", candidate, i+1)
		}
	}
	return "", fmt.Errorf("no free slug for %q", base)
}

func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Excerpt 去掉 HTML 标签后的前 150 个字符
func Excerpt(content string) string {
	text := util.NormalizeWhitespace(htmlTag.ReplaceAllString(content, " "))
	return util.Truncate(text, blogExcerptChars)
}

// ReadTime 按每分钟 200 词估算，向上取整
func ReadTime(content string) int {
	words := len(strings.Fields(htmlTag.ReplaceAllString(content, " ")))
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

func blogSystemPrompt(tpl BlogTemplate) string {
	return `You are an expert content writer specializing in education and study methods. Write engaging, SEO-optimized blog posts that are informative, entertaining, and naturally incorporate target keywords.

Requirements:
- Write 800-2000 words
- Use the provided outline structure
- Naturally incorporate target keywords throughout
- Write in a conversational, Gen Z-friendly tone
- Include practical tips and actionable advice
- Add a call-to-action mentioning FYPQuiz naturally
- Use proper HTML formatting with <h2>, <h3>, <p>, <ul>, <li> tags
- Make it engaging and shareable on social media

Target keywords: ` + strings.Join(tpl.Keywords, ", ")
}

func blogUserPrompt(tpl BlogTemplate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a comprehensive blog post titled %q following this outline:\n\n", tpl.Title)
	for i, point := range tpl.Outline {
		fmt.Fprintf(&b, "%d. %s\n", i+1, point)
	}
	b.WriteString(`
Make sure to:
- Naturally include the target keywords throughout
- Write engaging, informative content
- Include practical examples and tips
- Mention FYPQuiz as a solution in relevant sections
- Use proper HTML formatting
- Keep it conversational and Gen Z-friendly`)
	return b.String()
}

func (s *BlogService) List(page, size int) (*BlogList, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 50 {
		size = 10
	}
	items, total, err := s.Repo.ListPublished(size, (page-1)*size)
	if err != nil {
		return nil, err
	}
	return &BlogList{Items: items, Total: total, Page: page, Size: size}, nil
}

func (s *BlogService) Get(slug string) (*model.BlogPost, error) {
	return s.Repo.FindBySlug(slug)
}

func (s *BlogService) Stats() (*repository.BlogStats, error) {
	return s.Repo.Stats(s.now().AddDate(0, 0, -7))
}
