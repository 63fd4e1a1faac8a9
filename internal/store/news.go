package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaan-hospital/apiserver/types"
)

const newsColumns = `id, title, content, summary, category, author, image, tags, priority,
	is_published, publish_date, expiry_date, views, likes, is_active, created_at, updated_at`

// priorityRank mirrors types.NewsPriority.Rank for SQL ordering.
const priorityRank = `CASE priority
		WHEN 'Urgent' THEN 4
		WHEN 'High' THEN 3
		WHEN 'Medium' THEN 2
		WHEN 'Low' THEN 1
		ELSE 0
	END`

// NewsRepository handles persistence for news articles.
type NewsRepository struct {
	db *sql.DB
}

func NewNewsRepository(db *sql.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

func scanNews(row rowScanner) (types.News, error) {
	var news types.News
	var imageJSON, tagsJSON []byte
	var expiry sql.NullTime
	err := row.Scan(
		&news.ID,
		&news.Title,
		&news.Content,
		&news.Summary,
		&news.Category,
		&news.Author,
		&imageJSON,
		&tagsJSON,
		&news.Priority,
		&news.IsPublished,
		&news.PublishDate,
		&expiry,
		&news.Views,
		&news.Likes,
		&news.IsActive,
		&news.CreatedAt,
		&news.UpdatedAt,
	)
	if err != nil {
		return types.News{}, err
	}

	news.Image = decodeImage(imageJSON)
	_ = json.Unmarshal(tagsJSON, &news.Tags)
	if expiry.Valid {
		t := expiry.Time
		news.ExpiryDate = &t
	}
	return news, nil
}

func (r *NewsRepository) getOne(ctx context.Context, query string, args ...any) (types.News, error) {
	news, err := scanNews(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.News{}, ErrNotFound
		}
		return types.News{}, err
	}
	return news, nil
}

// newsWhere builds the WHERE clause for a listing. Soft-deleted articles
// never appear in listings.
func newsWhere(filter types.NewsFilter) (string, []any) {
	conds := []string{"is_active"}
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Category != nil {
		conds = append(conds, "category = "+next(*filter.Category))
	}
	if filter.Priority != nil {
		conds = append(conds, "priority = "+next(*filter.Priority))
	}
	if filter.IsPublished != nil {
		conds = append(conds, "is_published = "+next(*filter.IsPublished))
	}
	if filter.VisibleAt != nil {
		at := next(*filter.VisibleAt)
		conds = append(conds,
			"is_published",
			"publish_date <= "+at,
			"(expiry_date IS NULL OR expiry_date >= "+at+")",
		)
	}
	return strings.Join(conds, " AND "), args
}

func (r *NewsRepository) List(ctx context.Context, filter types.NewsFilter, page types.Page) ([]types.News, int, error) {
	offset := page.Offset()
	limit := page.Limit
	if limit < 1 {
		limit = 10
	}

	where, args := newsWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM news WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "created_at DESC, id"
	if filter.VisibleAt != nil {
		order = priorityRank + " DESC, publish_date DESC, id"
	}
	listQuery := fmt.Sprintf(`SELECT %s FROM news WHERE %s ORDER BY %s OFFSET $%d LIMIT $%d`,
		newsColumns, where, order, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, listQuery, append(args, offset, limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	articles := make([]types.News, 0, limit)
	for rows.Next() {
		news, err := scanNews(rows)
		if err != nil {
			return nil, 0, err
		}
		articles = append(articles, news)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

func (r *NewsRepository) Get(ctx context.Context, id string) (types.News, error) {
	return r.getOne(ctx, `SELECT `+newsColumns+` FROM news WHERE id = $1`, id)
}

func (r *NewsRepository) Create(ctx context.Context, news types.News) (types.News, error) {
	now := time.Now().UTC()
	news.ID = uuid.NewString()
	news.CreatedAt = now
	news.UpdatedAt = now

	imageJSON, err := imageValue(news.Image)
	if err != nil {
		return types.News{}, err
	}
	tagsJSON, err := jsonList(news.Tags)
	if err != nil {
		return types.News{}, err
	}

	const query = `
		INSERT INTO news (id, title, content, summary, category, author, image, tags, priority,
			is_published, publish_date, expiry_date, views, likes, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		news.ID,
		news.Title,
		news.Content,
		news.Summary,
		news.Category,
		news.Author,
		imageJSON,
		tagsJSON,
		news.Priority,
		news.IsPublished,
		news.PublishDate,
		news.ExpiryDate,
		news.Views,
		news.Likes,
		news.IsActive,
		news.CreatedAt,
		news.UpdatedAt,
	); err != nil {
		return types.News{}, translateError(err)
	}
	return news, nil
}

// Update rewrites the editable fields. Counters and the soft-delete flag are
// left to their dedicated atomic operations.
func (r *NewsRepository) Update(ctx context.Context, news types.News) (types.News, error) {
	imageJSON, err := imageValue(news.Image)
	if err != nil {
		return types.News{}, err
	}
	tagsJSON, err := jsonList(news.Tags)
	if err != nil {
		return types.News{}, err
	}

	const query = `
		UPDATE news
		SET title = $1,
			content = $2,
			summary = $3,
			category = $4,
			author = $5,
			image = $6,
			tags = $7,
			priority = $8,
			is_published = $9,
			publish_date = $10,
			expiry_date = $11,
			updated_at = $12
		WHERE id = $13
		RETURNING ` + newsColumns
	return r.getOne(
		ctx,
		query,
		news.Title,
		news.Content,
		news.Summary,
		news.Category,
		news.Author,
		imageJSON,
		tagsJSON,
		news.Priority,
		news.IsPublished,
		news.PublishDate,
		news.ExpiryDate,
		time.Now().UTC(),
		news.ID,
	)
}

// IncrementViews adds one view to a published, active article and returns it.
func (r *NewsRepository) IncrementViews(ctx context.Context, id string) (types.News, error) {
	const query = `
		UPDATE news
		SET views = views + 1
		WHERE id = $1 AND is_active AND is_published
		RETURNING ` + newsColumns
	return r.getOne(ctx, query, id)
}

// IncrementLikes adds one like to a published, active article and returns
// the new count.
func (r *NewsRepository) IncrementLikes(ctx context.Context, id string) (int, error) {
	const query = `
		UPDATE news
		SET likes = likes + 1
		WHERE id = $1 AND is_active AND is_published
		RETURNING likes`
	var likes int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&likes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return likes, nil
}

// TogglePublished flips the publication flag of an active article.
func (r *NewsRepository) TogglePublished(ctx context.Context, id string) (types.News, error) {
	const query = `
		UPDATE news
		SET is_published = NOT is_published,
			updated_at = $2
		WHERE id = $1 AND is_active
		RETURNING ` + newsColumns
	return r.getOne(ctx, query, id, time.Now().UTC())
}

// Deactivate soft-deletes an active article and returns its last state.
func (r *NewsRepository) Deactivate(ctx context.Context, id string) (types.News, error) {
	const query = `
		UPDATE news
		SET is_active = FALSE,
			updated_at = $2
		WHERE id = $1 AND is_active
		RETURNING ` + newsColumns
	return r.getOne(ctx, query, id, time.Now().UTC())
}

// Stats summarises active articles for the admin dashboard.
func (r *NewsRepository) Stats(ctx context.Context, top int) (types.NewsStats, error) {
	const countQuery = `
		SELECT COUNT(1),
			COUNT(1) FILTER (WHERE is_published),
			COUNT(1) FILTER (WHERE NOT is_published)
		FROM news
		WHERE is_active`
	var stats types.NewsStats
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(
		&stats.TotalNews,
		&stats.PublishedNews,
		&stats.DraftNews,
	); err != nil {
		return types.NewsStats{}, err
	}

	const categoryQuery = `
		SELECT category, COUNT(1) AS total
		FROM news
		WHERE is_active AND is_published
		GROUP BY category
		ORDER BY total DESC, category`
	rows, err := r.db.QueryContext(ctx, categoryQuery)
	if err != nil {
		return types.NewsStats{}, err
	}
	stats.NewsByCategory = make([]types.CategoryCount, 0)
	for rows.Next() {
		var entry types.CategoryCount
		if err := rows.Scan(&entry.Category, &entry.Count); err != nil {
			rows.Close()
			return types.NewsStats{}, err
		}
		stats.NewsByCategory = append(stats.NewsByCategory, entry)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return types.NewsStats{}, err
	}

	const mostViewedQuery = `
		SELECT id, title, views, '' AS category, publish_date
		FROM news
		WHERE is_active AND is_published
		ORDER BY views DESC, publish_date DESC
		LIMIT $1`
	if stats.MostViewedNews, err = r.headlines(ctx, mostViewedQuery, top); err != nil {
		return types.NewsStats{}, err
	}

	const recentQuery = `
		SELECT id, title, 0 AS views, category, publish_date
		FROM news
		WHERE is_active AND is_published
		ORDER BY publish_date DESC
		LIMIT $1`
	if stats.RecentNews, err = r.headlines(ctx, recentQuery, top); err != nil {
		return types.NewsStats{}, err
	}
	return stats, nil
}

func (r *NewsRepository) headlines(ctx context.Context, query string, limit int) ([]types.NewsHeadline, error) {
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	headlines := make([]types.NewsHeadline, 0, limit)
	for rows.Next() {
		var h types.NewsHeadline
		if err := rows.Scan(&h.ID, &h.Title, &h.Views, &h.Category, &h.PublishDate); err != nil {
			return nil, err
		}
		headlines = append(headlines, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return headlines, nil
}
