package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shaan-hospital/apiserver/internal/apperr"
	"github.com/shaan-hospital/apiserver/internal/store/memory"
	"github.com/shaan-hospital/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var newsNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newNewsService() (*NewsService, *recordingCleaner) {
	cleaner := &recordingCleaner{}
	svc := NewNewsService(memory.NewNewsRepository(), NewImages(newFakeObjects(), cleaner))
	svc.now = func() time.Time { return newsNow }
	return svc, cleaner
}

func newsInput(title string) NewsInput {
	return NewsInput{
		Title:       ptr(title),
		Content:     ptr("Body of " + title),
		Summary:     ptr("Summary of " + title),
		Author:      ptr("Dr. Admin"),
		IsPublished: ptr(true),
	}
}

func TestCreateNewsDefaults(t *testing.T) {
	svc, _ := newNewsService()

	news, err := svc.Create(context.Background(), newsInput("Defaults"), nil)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultNewsCategory, news.Category)
	assert.Equal(t, types.DefaultNewsPriority, news.Priority)
	assert.Equal(t, newsNow, news.PublishDate)
	assert.True(t, news.IsActive)
	assert.Empty(t, news.Tags)
	assert.Zero(t, news.Views)
}

func TestCreateNewsValidation(t *testing.T) {
	svc, _ := newNewsService()
	ctx := context.Background()

	in := newsInput("Missing author")
	in.Author = nil
	_, err := svc.Create(ctx, in, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please provide all required fields!")

	in = newsInput("Bad category")
	in.Category = ptr(types.NewsCategory("Gossip"))
	_, err = svc.Create(ctx, in, nil)
	assert.Equal(t, apperr.KindValidation, kindOf(err))

	in = newsInput("Too long")
	long := make([]byte, types.MaxNewsSummaryLength+1)
	for i := range long {
		long[i] = 'a'
	}
	in.Summary = ptr(string(long))
	_, err = svc.Create(ctx, in, nil)
	assert.Equal(t, apperr.KindValidation, kindOf(err))

	_, err = svc.Create(ctx, newsInput("Text image"), &ImageUpload{ContentType: "text/plain", Data: []byte("x")})
	assert.Equal(t, apperr.KindUnsupportedMedia, kindOf(err))
}

func TestListPublishedVisibility(t *testing.T) {
	svc, _ := newNewsService()
	ctx := context.Background()

	visible, err := svc.Create(ctx, newsInput("Visible"), nil)
	require.NoError(t, err)

	draft := newsInput("Draft")
	draft.IsPublished = ptr(false)
	_, err = svc.Create(ctx, draft, nil)
	require.NoError(t, err)

	future := newsInput("Future")
	future.PublishDate = ptr("2026-04-01")
	_, err = svc.Create(ctx, future, nil)
	require.NoError(t, err)

	expired := newsInput("Expired")
	expired.PublishDate = ptr("2026-01-01")
	expired.ExpiryDate = ptr("2026-02-01")
	_, err = svc.Create(ctx, expired, nil)
	require.NoError(t, err)

	deleted, err := svc.Create(ctx, newsInput("Deleted"), nil)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, deleted.ID))

	page, err := svc.ListPublished(ctx, nil, types.Page{Page: 1})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, visible.ID, page.News[0].ID)
	assert.Equal(t, 6, page.Page.Limit)
}

func TestListPublishedOrdersByPriorityThenDate(t *testing.T) {
	svc, _ := newNewsService()
	ctx := context.Background()

	create := func(title string, priority types.NewsPriority, published string) {
		in := newsInput(title)
		in.Priority = ptr(priority)
		in.PublishDate = ptr(published)
		_, err := svc.Create(ctx, in, nil)
		require.NoError(t, err)
	}
	create("low-new", types.PriorityLow, "2026-03-09")
	create("urgent-old", types.PriorityUrgent, "2026-03-01")
	create("high-old", types.PriorityHigh, "2026-03-02")
	create("high-new", types.PriorityHigh, "2026-03-08")

	page, err := svc.ListPublished(ctx, nil, types.Page{Page: 1, Limit: 10})
	require.NoError(t, err)

	var titles []string
	for _, n := range page.News {
		titles = append(titles, n.Title)
	}
	assert.Equal(t, []string{"urgent-old", "high-new", "high-old", "low-new"}, titles)
}

func TestListPublishedPagination(t *testing.T) {
	svc, _ := newNewsService()
	ctx := context.Background()

	for i := range 13 {
		_, err := svc.Create(ctx, newsInput(fmt.Sprintf("Article %02d", i)), nil)
		require.NoError(t, err)
	}

	page, err := svc.ListPublished(ctx, nil, types.Page{Page: 3, Limit: 6})
	require.NoError(t, err)
	assert.Equal(t, 13, page.Total)
	assert.Len(t, page.News, 1)
	assert.Equal(t, 3, page.Page.TotalPages(page.Total))
}

func TestArticleCountsPublicViewsOnly(t *testing.T) {
	svc, _ := newNewsService()
	ctx := context.Background()

	news, err := svc.Create(ctx, newsInput("Viewed"), nil)
	require.NoError(t, err)

	read, err := svc.Article(ctx, news.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, read.Views)

	read, err = svc.Article(ctx, news.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, read.Views)

	draft := newsInput("Unpublished")
	draft.IsPublished = ptr(false)
	hidden, err := svc.Create(ctx, draft, nil)
	require.NoError(t, err)
	read, err = svc.Article(ctx, hidden.ID, false)
	require.NoError(t, err)
	assert.Zero(t, read.Views)
}

func TestSoftDeletedArticleVisibleToAdminOnly(t *testing.T) {
	svc, cleaner := newNewsService()
	ctx := context.Background()

	news, err := svc.Create(ctx, newsInput("Soon gone"), pngUpload())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, news.ID))
	assert.Equal(t, []string{news.Image.PublicID}, cleaner.ids())

	_, err = svc.Article(ctx, news.ID, false)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))

	read, err := svc.Article(ctx, news.ID, true)
	require.NoError(t, err)
	assert.False(t, read.IsActive)

	_, err = svc.TogglePublish(ctx, news.ID)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
	assert.Equal(t, apperr.KindNotFound, kindOf(svc.Delete(ctx, news.ID)))
}

func TestConcurrentLikesAreNotLost(t *testing.T) {
	svc, _ := newNewsService()
	ctx := context.Background()

	news, err := svc.Create(ctx, newsInput("Popular"), nil)
	require.NoError(t, err)

	const likers = 50
	var wg sync.WaitGroup
	for range likers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Like(ctx, news.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	read, err := svc.Article(ctx, news.ID, true)
	require.NoError(t, err)
	assert.Equal(t, likers, read.Likes)
}

func TestLikeRequiresPublishedArticle(t *testing.T) {
	svc, _ := newNewsService()
	ctx := context.Background()

	draft := newsInput("Draft")
	draft.IsPublished = ptr(false)
	news, err := svc.Create(ctx, draft, nil)
	require.NoError(t, err)

	_, err = svc.Like(ctx, news.ID)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))

	_, err = svc.Like(ctx, "not-a-uuid")
	assert.Equal(t, apperr.KindInvalidIdentifier, kindOf(err))
}

func TestTogglePublishFlips(t *testing.T) {
	svc, _ := newNewsService()
	ctx := context.Background()

	news, err := svc.Create(ctx, newsInput("Toggle"), nil)
	require.NoError(t, err)

	toggled, err := svc.TogglePublish(ctx, news.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsPublished)

	toggled, err = svc.TogglePublish(ctx, news.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsPublished)
}

func TestUpdateNewsKeepsCounters(t *testing.T) {
	svc, cleaner := newNewsService()
	ctx := context.Background()

	news, err := svc.Create(ctx, newsInput("Original"), pngUpload())
	require.NoError(t, err)
	_, err = svc.Like(ctx, news.ID)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, news.ID, NewsInput{Title: ptr("Renamed")}, pngUpload())
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "Summary of Original", updated.Summary)
	assert.Equal(t, 1, updated.Likes)
	assert.Equal(t, []string{news.Image.PublicID}, cleaner.ids())
}
