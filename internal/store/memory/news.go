package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaan-hospital/apiserver/internal/store"
	"github.com/shaan-hospital/apiserver/types"
)

// NewsRepository stores news articles in memory.
type NewsRepository struct {
	mu   sync.RWMutex
	news map[string]*entry[types.News]
	seq  int64
}

func NewNewsRepository() *NewsRepository {
	return &NewsRepository{news: make(map[string]*entry[types.News])}
}

func cloneNews(n types.News) types.News {
	n.Tags = cloneStrings(n.Tags)
	n.Image = cloneImage(n.Image)
	if n.ExpiryDate != nil {
		t := *n.ExpiryDate
		n.ExpiryDate = &t
	}
	return n
}

func matchesNews(n types.News, filter types.NewsFilter) bool {
	if !n.IsActive {
		return false
	}
	if filter.Category != nil && n.Category != *filter.Category {
		return false
	}
	if filter.Priority != nil && n.Priority != *filter.Priority {
		return false
	}
	if filter.IsPublished != nil && n.IsPublished != *filter.IsPublished {
		return false
	}
	if filter.VisibleAt != nil && !n.VisibleAt(*filter.VisibleAt) {
		return false
	}
	return true
}

func (r *NewsRepository) List(_ context.Context, filter types.NewsFilter, page types.Page) ([]types.News, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := newestFirst(r.news, func(n types.News) bool {
		return matchesNews(n, filter)
	})
	if filter.VisibleAt != nil {
		sort.SliceStable(matched, func(i, j int) bool {
			ri, rj := matched[i].Priority.Rank(), matched[j].Priority.Rank()
			if ri != rj {
				return ri > rj
			}
			return matched[i].PublishDate.After(matched[j].PublishDate)
		})
	}

	total := len(matched)
	limit := page.Limit
	if limit < 1 {
		limit = 10
	}
	start := max(0, min(page.Offset(), total))
	end := start + min(limit, total-start)

	items := make([]types.News, 0, end-start)
	for _, n := range matched[start:end] {
		items = append(items, cloneNews(n))
	}
	return items, total, nil
}

func (r *NewsRepository) Get(_ context.Context, id string) (types.News, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.news[id]
	if !ok {
		return types.News{}, store.ErrNotFound
	}
	return cloneNews(e.value), nil
}

func (r *NewsRepository) Create(_ context.Context, news types.News) (types.News, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	news.ID = uuid.NewString()
	news.CreatedAt = now
	news.UpdatedAt = now
	r.seq++
	r.news[news.ID] = &entry[types.News]{value: cloneNews(news), seq: r.seq}
	return news, nil
}

// Update rewrites the editable fields and leaves counters untouched.
func (r *NewsRepository) Update(_ context.Context, news types.News) (types.News, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.news[news.ID]
	if !ok {
		return types.News{}, store.ErrNotFound
	}
	current := e.value
	news.Views = current.Views
	news.Likes = current.Likes
	news.IsActive = current.IsActive
	news.CreatedAt = current.CreatedAt
	news.UpdatedAt = time.Now().UTC()
	e.value = cloneNews(news)
	return cloneNews(news), nil
}

func (r *NewsRepository) IncrementViews(_ context.Context, id string) (types.News, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.news[id]
	if !ok || !e.value.IsActive || !e.value.IsPublished {
		return types.News{}, store.ErrNotFound
	}
	e.value.Views++
	return cloneNews(e.value), nil
}

func (r *NewsRepository) IncrementLikes(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.news[id]
	if !ok || !e.value.IsActive || !e.value.IsPublished {
		return 0, store.ErrNotFound
	}
	e.value.Likes++
	return e.value.Likes, nil
}

func (r *NewsRepository) TogglePublished(_ context.Context, id string) (types.News, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.news[id]
	if !ok || !e.value.IsActive {
		return types.News{}, store.ErrNotFound
	}
	e.value.IsPublished = !e.value.IsPublished
	e.value.UpdatedAt = time.Now().UTC()
	return cloneNews(e.value), nil
}

func (r *NewsRepository) Deactivate(_ context.Context, id string) (types.News, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.news[id]
	if !ok || !e.value.IsActive {
		return types.News{}, store.ErrNotFound
	}
	e.value.IsActive = false
	e.value.UpdatedAt = time.Now().UTC()
	return cloneNews(e.value), nil
}

func (r *NewsRepository) Stats(_ context.Context, top int) (types.NewsStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats types.NewsStats
	counts := make(map[types.NewsCategory]int)
	var published []types.News
	for _, e := range r.news {
		n := e.value
		if !n.IsActive {
			continue
		}
		stats.TotalNews++
		if !n.IsPublished {
			stats.DraftNews++
			continue
		}
		stats.PublishedNews++
		counts[n.Category]++
		published = append(published, n)
	}

	stats.NewsByCategory = make([]types.CategoryCount, 0, len(counts))
	for category, count := range counts {
		stats.NewsByCategory = append(stats.NewsByCategory, types.CategoryCount{Category: category, Count: count})
	}
	sort.Slice(stats.NewsByCategory, func(i, j int) bool {
		a, b := stats.NewsByCategory[i], stats.NewsByCategory[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return strings.Compare(string(a.Category), string(b.Category)) < 0
	})

	sort.Slice(published, func(i, j int) bool {
		if published[i].Views != published[j].Views {
			return published[i].Views > published[j].Views
		}
		return published[i].PublishDate.After(published[j].PublishDate)
	})
	stats.MostViewedNews = make([]types.NewsHeadline, 0, top)
	for _, n := range published[:min(top, len(published))] {
		stats.MostViewedNews = append(stats.MostViewedNews, types.NewsHeadline{
			ID:          n.ID,
			Title:       n.Title,
			Views:       n.Views,
			PublishDate: n.PublishDate,
		})
	}

	sort.Slice(published, func(i, j int) bool {
		return published[i].PublishDate.After(published[j].PublishDate)
	})
	stats.RecentNews = make([]types.NewsHeadline, 0, top)
	for _, n := range published[:min(top, len(published))] {
		stats.RecentNews = append(stats.RecentNews, types.NewsHeadline{
			ID:          n.ID,
			Title:       n.Title,
			Category:    n.Category,
			PublishDate: n.PublishDate,
		})
	}
	return stats, nil
}
