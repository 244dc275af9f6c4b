package backend

import (
	"github.com/dgallion1/rssmd/internal/catalog"
	"github.com/dgallion1/rssmd/internal/outline"
	"github.com/dgallion1/rssmd/internal/session"
)

// LoginRequest is the body of POST /api/v1/login.
type LoginRequest struct {
	Code     string            `json:"code"`
	UserInfo *session.UserInfo `json:"userInfo,omitempty"`
}

// LoginResult carries the credential issued by the backend.
type LoginResult struct {
	Token     string       `json:"token"`
	UserID    catalog.ID   `json:"userId"`
	Role      session.Role `json:"role"`
	ExpiresAt string       `json:"expires_at,omitempty"`
}

// ArticleSummary is a blog list entry.
type ArticleSummary struct {
	ID          catalog.ID `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	CategoryID  catalog.ID `json:"category_id,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	ReadingTime int        `json:"reading_time,omitempty"`
	WordCount   int        `json:"word_count,omitempty"`
	ViewCount   int        `json:"view_count,omitempty"`
	CreatedAt   string     `json:"createdAt,omitempty"`
}

// QuestionRef is a question linked from an article.
type QuestionRef struct {
	ID         catalog.ID `json:"id"`
	Title      string     `json:"title"`
	Type       string     `json:"type,omitempty"`
	Difficulty int        `json:"difficulty,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
}

// Article is a full blog article.
type Article struct {
	ArticleSummary
	Content          string            `json:"content,omitempty"`
	HTMLContent      string            `json:"html_content"`
	Headings         []outline.Heading `json:"headings"`
	UpdatedAt        string            `json:"updatedAt,omitempty"`
	RelatedQuestions []QuestionRef     `json:"related_questions,omitempty"`
}

// Question types.
const (
	TypeShortAnswer = "short_answer"
	TypeProgramming = "programming"
)

// Question is a question-bank entry. Answer and Explanation are empty unless requested.
type Question struct {
	ID              catalog.ID       `json:"id"`
	CategoryID      catalog.ID       `json:"category_id,omitempty"`
	Type            string           `json:"type,omitempty"`
	Title           string           `json:"title"`
	Content         string           `json:"content,omitempty"`
	Difficulty      int              `json:"difficulty,omitempty"`
	Tags            []string         `json:"tags,omitempty"`
	Answer          string           `json:"answer,omitempty"`
	Explanation     string           `json:"explanation,omitempty"`
	RelatedArticles []ArticleSummary `json:"related_articles,omitempty"`
	Navigation      *Navigation      `json:"navigation,omitempty"`
	FavoritedAt     string           `json:"favorited_at,omitempty"`
}

// Navigation links to the neighbouring questions in the same category.
// An empty ID means there is none.
type Navigation struct {
	Prev catalog.ID `json:"prev"`
	Next catalog.ID `json:"next"`
}

// Tag is a search facet.
type Tag struct {
	ID    catalog.ID `json:"id,omitempty"`
	Name  string     `json:"name"`
	Count int        `json:"count,omitempty"`
}

// QuestionSearch is the reply to a question-bank search.
type QuestionSearch struct {
	Questions  []Question  `json:"questions"`
	Tags       []Tag       `json:"tags"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// QuestionQuery filters GET /api/v1/question-bank/questions.
type QuestionQuery struct {
	CategoryID string
	Page       int
	PageSize   int
	// Difficulty 1-5, 0 for any.
	Difficulty int
	// Type is TypeShortAnswer, TypeProgramming or empty for any.
	Type string
}

// Page is one page of a paginated list.
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// FeedbackRequest is the body of POST /api/feedback.
type FeedbackRequest struct {
	UserID  string `json:"userId"`
	Content string `json:"content"`
	Contact string `json:"contact,omitempty"`
}

// HistoryGroup is one conversion in the user's history.
type HistoryGroup struct {
	ArticleID catalog.ID `json:"article_id"`
	CreatedAt string     `json:"created_at"`
	Style     string     `json:"style"`
	ImageURLs []string   `json:"image_urls"`
}

// RenderRequest is the body of POST /preview and POST /convert.
type RenderRequest struct {
	Content   string `json:"content"`
	Style     string `json:"style"`
	Watermark string `json:"watermark,omitempty"`
	UserID    string `json:"user_id"`
	ArticleID string `json:"article_id"`
}

// RenderResult lists the images produced for a RenderRequest.
type RenderResult struct {
	Images    []string   `json:"images"`
	ArticleID catalog.ID `json:"article_id,omitempty"`
}

// User is an account as seen by administrators.
type User struct {
	ID        catalog.ID   `json:"id"`
	OpenID    string       `json:"openid,omitempty"`
	Username  string       `json:"username,omitempty"`
	UserType  string       `json:"user_type,omitempty"`
	Nickname  string       `json:"nickname"`
	AvatarURL string       `json:"avatar_url,omitempty"`
	Role      session.Role `json:"role"`
	CreatedAt string       `json:"created_at,omitempty"`
	LastLogin string       `json:"last_login,omitempty"`
}

// Feedback statuses.
const (
	FeedbackPending   = "pending"
	FeedbackProcessed = "processed"
	FeedbackClosed    = "closed"
)

// Feedback is a submitted feedback entry.
type Feedback struct {
	ID           catalog.ID `json:"id"`
	UserID       catalog.ID `json:"user_id"`
	Content      string     `json:"content"`
	Contact      string     `json:"contact"`
	Status       string     `json:"status"`
	CreatedAt    string     `json:"created_at"`
	ProcessedAt  string     `json:"processed_at,omitempty"`
	UserNickname string     `json:"user_nickname,omitempty"`
}

// ChartPoint is one sample of the analytics trend chart.
type ChartPoint struct {
	Label string  `json:"label,omitempty"`
	Value float64 `json:"value"`
}

// Analytics is the usage summary for a time range.
type Analytics struct {
	TotalGenerations  int              `json:"totalGenerations"`
	TotalImages       int              `json:"totalImages"`
	ActiveUsers       int              `json:"activeUsers"`
	AvgGenerationTime float64          `json:"avgGenerationTime"`
	GenerationTrend   float64          `json:"generationTrend"`
	ImageTrend        float64          `json:"imageTrend"`
	UserTrend         float64          `json:"userTrend"`
	UsageData         []map[string]any `json:"usageData"`
	ChartData         []ChartPoint     `json:"chartData"`
}

// FeedSource is one RSS source offered by the backend.
type FeedSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
