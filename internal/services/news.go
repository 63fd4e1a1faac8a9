package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shaan-hospital/apiserver/internal/apperr"
	"github.com/shaan-hospital/apiserver/internal/store"
	"github.com/shaan-hospital/apiserver/internal/validate"
	"github.com/shaan-hospital/apiserver/types"
)

const (
	maxNewsPageLimit = 100
	newsStatsTop     = 5
)

// NewsRepository defines persistence operations for news articles.
type NewsRepository interface {
	List(ctx context.Context, filter types.NewsFilter, page types.Page) ([]types.News, int, error)
	Get(ctx context.Context, id string) (types.News, error)
	Create(ctx context.Context, news types.News) (types.News, error)
	Update(ctx context.Context, news types.News) (types.News, error)
	IncrementViews(ctx context.Context, id string) (types.News, error)
	IncrementLikes(ctx context.Context, id string) (int, error)
	TogglePublished(ctx context.Context, id string) (types.News, error)
	Deactivate(ctx context.Context, id string) (types.News, error)
	Stats(ctx context.Context, top int) (types.NewsStats, error)
}

// NewsInput is the payload of news create and update requests. On update,
// nil fields keep their stored value.
type NewsInput struct {
	Title       *string             `json:"title"`
	Content     *string             `json:"content"`
	Summary     *string             `json:"summary" validate:"omitempty,max=200"`
	Category    *types.NewsCategory `json:"category" validate:"omitempty,enum"`
	Author      *string             `json:"author"`
	Tags        []string            `json:"tags"`
	Priority    *types.NewsPriority `json:"priority" validate:"omitempty,enum"`
	IsPublished *bool               `json:"isPublished"`
	PublishDate *string             `json:"publishDate"`
	ExpiryDate  *string             `json:"expiryDate"`
}

// normalize drops blank optional values so they fall back to defaults.
func (in *NewsInput) normalize() {
	if in.Category != nil && strings.TrimSpace(string(*in.Category)) == "" {
		in.Category = nil
	}
	if in.Priority != nil && strings.TrimSpace(string(*in.Priority)) == "" {
		in.Priority = nil
	}
	if in.PublishDate != nil && strings.TrimSpace(*in.PublishDate) == "" {
		in.PublishDate = nil
	}
	if in.ExpiryDate != nil && strings.TrimSpace(*in.ExpiryDate) == "" {
		in.ExpiryDate = nil
	}
}

// NewsService encapsulates news use-cases.
type NewsService struct {
	repo   NewsRepository
	images *Images
	now    func() time.Time
}

func NewNewsService(repo NewsRepository, images *Images) *NewsService {
	return &NewsService{repo: repo, images: images, now: time.Now}
}

func clampPage(page types.Page, defaultLimit int) types.Page {
	if page.Page < 1 {
		page.Page = 1
	}
	if page.Limit < 1 {
		page.Limit = defaultLimit
	}
	if page.Limit > maxNewsPageLimit {
		page.Limit = maxNewsPageLimit
	}
	return page
}

// NewsPage is one window of a news listing.
type NewsPage struct {
	News  []types.News
	Page  types.Page
	Total int
}

// ListPublished returns publicly visible articles ordered by priority and
// then by publish date.
func (s *NewsService) ListPublished(ctx context.Context, category *types.NewsCategory, page types.Page) (NewsPage, error) {
	now := s.now().UTC()
	filter := types.NewsFilter{Category: category, VisibleAt: &now}
	return s.list(ctx, filter, clampPage(page, 6))
}

// ListAdmin returns active articles matching filter, newest first.
func (s *NewsService) ListAdmin(ctx context.Context, filter types.NewsFilter, page types.Page) (NewsPage, error) {
	filter.VisibleAt = nil
	return s.list(ctx, filter, clampPage(page, 10))
}

func (s *NewsService) list(ctx context.Context, filter types.NewsFilter, page types.Page) (NewsPage, error) {
	items, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return NewsPage{}, err
	}
	return NewsPage{News: items, Page: page, Total: total}, nil
}

// Article returns an article. Soft-deleted articles are visible to admins
// only, and non-admin reads of a published article count as a view.
func (s *NewsService) Article(ctx context.Context, id string, admin bool) (types.News, error) {
	if err := checkID(id); err != nil {
		return types.News{}, err
	}
	news, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.News{}, storeError(err, "News article not found!")
	}
	if admin {
		return news, nil
	}
	if !news.IsActive {
		return types.News{}, apperr.NotFound("News article not found!")
	}
	if !news.IsPublished {
		return news, nil
	}

	viewed, err := s.repo.IncrementViews(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return news, nil
		}
		return types.News{}, err
	}
	return viewed, nil
}

// Like adds one like to a published article and returns the new count.
func (s *NewsService) Like(ctx context.Context, id string) (int, error) {
	if err := checkID(id); err != nil {
		return 0, err
	}
	likes, err := s.repo.IncrementLikes(ctx, id)
	return likes, storeError(err, "News article not found!")
}

func (s *NewsService) Create(ctx context.Context, in NewsInput, image *ImageUpload) (types.News, error) {
	if err := s.images.Check(image); err != nil {
		return types.News{}, err
	}
	in.normalize()
	if blank(in.Title) || blank(in.Content) || blank(in.Summary) || blank(in.Author) {
		return types.News{}, apperr.Validation("Please provide all required fields!")
	}
	if err := validate.Struct(in); err != nil {
		return types.News{}, err
	}

	news := types.News{
		Category:    types.DefaultNewsCategory,
		Priority:    types.DefaultNewsPriority,
		PublishDate: s.now().UTC(),
		Tags:        []string{},
		IsActive:    true,
	}
	if err := applyNews(&news, in); err != nil {
		return types.News{}, err
	}

	var uploaded *types.Image
	if image != nil {
		img, err := s.images.Upload(ctx, FolderNews, *image)
		if err != nil {
			return types.News{}, err
		}
		uploaded = &img
		news.Image = uploaded
	}

	created, err := s.repo.Create(ctx, news)
	if err != nil {
		s.images.Discard(ctx, uploaded, "news create failed")
		return types.News{}, storeError(err, "News article not found!")
	}
	return created, nil
}

// Update applies a partial update and optionally replaces the image.
func (s *NewsService) Update(ctx context.Context, id string, in NewsInput, image *ImageUpload) (types.News, error) {
	if err := s.images.Check(image); err != nil {
		return types.News{}, err
	}
	in.normalize()
	if err := validate.Struct(in); err != nil {
		return types.News{}, err
	}
	news, err := s.get(ctx, id)
	if err != nil {
		return types.News{}, err
	}
	if err := applyNews(&news, in); err != nil {
		return types.News{}, err
	}

	previous := news.Image
	var uploaded *types.Image
	if image != nil {
		img, err := s.images.Upload(ctx, FolderNews, *image)
		if err != nil {
			return types.News{}, err
		}
		uploaded = &img
		news.Image = uploaded
	}

	updated, err := s.repo.Update(ctx, news)
	if err != nil {
		s.images.Discard(ctx, uploaded, "news update failed")
		return types.News{}, storeError(err, "News article not found!")
	}
	if uploaded != nil {
		s.images.Discard(ctx, previous, "news image replaced")
	}
	return updated, nil
}

// Delete soft-deletes the article and retires its image.
func (s *NewsService) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	deleted, err := s.repo.Deactivate(ctx, id)
	if err != nil {
		return storeError(err, "News article not found!")
	}
	s.images.Discard(ctx, deleted.Image, "news deleted")
	return nil
}

// TogglePublish flips the publication flag.
func (s *NewsService) TogglePublish(ctx context.Context, id string) (types.News, error) {
	if err := checkID(id); err != nil {
		return types.News{}, err
	}
	news, err := s.repo.TogglePublished(ctx, id)
	return news, storeError(err, "News article not found!")
}

func (s *NewsService) Stats(ctx context.Context) (types.NewsStats, error) {
	return s.repo.Stats(ctx, newsStatsTop)
}

func (s *NewsService) get(ctx context.Context, id string) (types.News, error) {
	if err := checkID(id); err != nil {
		return types.News{}, err
	}
	news, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.News{}, storeError(err, "News article not found!")
	}
	if !news.IsActive {
		return types.News{}, apperr.NotFound("News article not found!")
	}
	return news, nil
}

func applyNews(news *types.News, in NewsInput) error {
	if !blank(in.Title) {
		news.Title = strings.TrimSpace(*in.Title)
	}
	if !blank(in.Content) {
		news.Content = *in.Content
	}
	if !blank(in.Summary) {
		news.Summary = strings.TrimSpace(*in.Summary)
	}
	if !blank(in.Author) {
		news.Author = strings.TrimSpace(*in.Author)
	}
	if in.Category != nil {
		news.Category = *in.Category
	}
	if in.Priority != nil {
		news.Priority = *in.Priority
	}
	if in.Tags != nil {
		news.Tags = trimAll(in.Tags)
	}
	if in.IsPublished != nil {
		news.IsPublished = *in.IsPublished
	}
	if in.PublishDate != nil {
		t, err := parseDate("publishDate", *in.PublishDate)
		if err != nil {
			return err
		}
		news.PublishDate = t
	}
	if in.ExpiryDate != nil {
		t, err := parseDate("expiryDate", *in.ExpiryDate)
		if err != nil {
			return err
		}
		news.ExpiryDate = &t
	}
	return nil
}
