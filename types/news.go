package types

import "time"

const MaxNewsSummaryLength = 200

// NewsCategory is the closed set of news categories.
type NewsCategory string

const (
	CategoryHealthTips      NewsCategory = "Health Tips"
	CategoryHospitalUpdates NewsCategory = "Hospital Updates"
	CategoryMedicalResearch NewsCategory = "Medical Research"
	CategoryEvents          NewsCategory = "Events"
	CategoryAnnouncements   NewsCategory = "Announcements"
	CategoryEmergencyAlerts NewsCategory = "Emergency Alerts"

	DefaultNewsCategory = CategoryHospitalUpdates
)

// Valid reports whether c is a known category.
func (c NewsCategory) Valid() bool {
	switch c {
	case CategoryHealthTips, CategoryHospitalUpdates, CategoryMedicalResearch,
		CategoryEvents, CategoryAnnouncements, CategoryEmergencyAlerts:
		return true
	}
	return false
}

// NewsPriority is the closed set of news priorities.
type NewsPriority string

const (
	PriorityLow    NewsPriority = "Low"
	PriorityMedium NewsPriority = "Medium"
	PriorityHigh   NewsPriority = "High"
	PriorityUrgent NewsPriority = "Urgent"

	DefaultNewsPriority = PriorityMedium
)

// Valid reports whether p is a known priority.
func (p NewsPriority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities from Low (1) to Urgent (4). Unknown values rank 0.
func (p NewsPriority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	}
	return 0
}

// News represents an article published on the public site.
type News struct {
	// ID is the unique identifier of the article.
	ID string `json:"_id" db:"id"`

	// Title is the headline.
	Title string `json:"title" db:"title"`

	// Content is the article body.
	Content string `json:"content" db:"content"`

	// Summary is a short teaser, at most MaxNewsSummaryLength characters.
	Summary string `json:"summary" db:"summary"`

	// Category classifies the article.
	Category NewsCategory `json:"category" db:"category"`

	// Author is the display name of the writer.
	Author string `json:"author" db:"author"`

	// Image references the article picture in object storage.
	Image *Image `json:"image,omitempty" db:"image"`

	// Tags are free-form labels.
	Tags []string `json:"tags" db:"tags"`

	// Priority drives ordering of public listings.
	Priority NewsPriority `json:"priority" db:"priority"`

	// IsPublished marks the article as visible once PublishDate is reached.
	IsPublished bool `json:"isPublished" db:"is_published"`

	// PublishDate is when the article becomes visible.
	PublishDate time.Time `json:"publishDate" db:"publish_date"`

	// ExpiryDate, when set, is when the article stops being visible.
	ExpiryDate *time.Time `json:"expiryDate" db:"expiry_date"`

	// Views counts public reads of the published article.
	Views int `json:"views" db:"views"`

	// Likes counts likes of the published article.
	Likes int `json:"likes" db:"likes"`

	// IsActive is false once the article has been deleted.
	IsActive bool `json:"isActive" db:"is_active"`

	// CreatedAt is the timestamp when the article was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// VisibleAt reports whether the article is publicly visible at now.
func (n News) VisibleAt(now time.Time) bool {
	if !n.IsActive || !n.IsPublished || n.PublishDate.After(now) {
		return false
	}
	return n.ExpiryDate == nil || !n.ExpiryDate.Before(now)
}

// NewsFilter narrows admin and public news listings. Nil fields do not filter.
type NewsFilter struct {
	Category    *NewsCategory
	Priority    *NewsPriority
	IsPublished *bool

	// VisibleAt restricts the listing to articles visible at that instant and
	// orders it as the public feed: priority rank first, then publish date.
	// Without it listings are ordered newest first.
	VisibleAt *time.Time
}

// CategoryCount is the number of published articles in a category.
type CategoryCount struct {
	Category NewsCategory `json:"_id"`
	Count    int          `json:"count"`
}

// NewsHeadline is a trimmed-down article used in statistics.
type NewsHeadline struct {
	ID          string       `json:"_id"`
	Title       string       `json:"title"`
	Views       int          `json:"views,omitempty"`
	Category    NewsCategory `json:"category,omitempty"`
	PublishDate time.Time    `json:"publishDate"`
}

// NewsStats summarises articles for the admin dashboard.
type NewsStats struct {
	TotalNews      int             `json:"totalNews"`
	PublishedNews  int             `json:"publishedNews"`
	DraftNews      int             `json:"draftNews"`
	NewsByCategory []CategoryCount `json:"newsByCategory"`
	MostViewedNews []NewsHeadline  `json:"mostViewedNews"`
	RecentNews     []NewsHeadline  `json:"recentNews"`
}
