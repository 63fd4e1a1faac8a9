package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shaan-hospital/apiserver/internal/logger"
	"github.com/shaan-hospital/apiserver/internal/services"
	"github.com/shaan-hospital/apiserver/types"
)

const (
	defaultPublishedLimit = 6
	defaultAdminNewsLimit = 10
)

// NewsHandler provides HTTP handlers for news articles.
type NewsHandler struct {
	news *services.NewsService
	log  *logger.Logger
}

// NewNewsHandler constructs a NewsHandler.
func NewNewsHandler(news *services.NewsService, log *logger.Logger) *NewsHandler {
	return &NewsHandler{news: news, log: log}
}

// NewsRouter registers news routes on the given router.
func NewsRouter(r chi.Router, news *services.NewsService, guard *Guard, log *logger.Logger) {
	h := NewNewsHandler(news, log)

	r.Get("/published", h.ListPublished)
	r.With(guard.OptionalAdmin).Get("/article/{id}", h.Article)
	r.Post("/like/{id}", h.Like)

	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAdmin)
		r.Post("/create", h.Create)
		r.Get("/admin/all", h.ListAdmin)
		r.Put("/update/{id}", h.Update)
		r.Delete("/delete/{id}", h.Delete)
		r.Patch("/toggle-publish/{id}", h.TogglePublish)
		r.Get("/admin/stats", h.Stats)
	})
}

// NewsListResponse is the paginated list payload.
type NewsListResponse struct {
	News        []types.News `json:"news"`
	TotalPages  int          `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
	Total       int          `json:"total"`
}

func writeNewsPage(w http.ResponseWriter, page services.NewsPage) {
	items := page.News
	if items == nil {
		items = []types.News{}
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		NewsListResponse
	}{
		Success: true,
		NewsListResponse: NewsListResponse{
			News:        items,
			TotalPages:  page.Page.TotalPages(page.Total),
			CurrentPage: page.Page.Page,
			Total:       page.Total,
		},
	})
}

// prepareNewsForm converts multipart text fields into their JSON shapes.
func prepareNewsForm(fields map[string]any) {
	listField(fields, "tags")
	boolField(fields, "isPublished")
}

func optionalQuery(r *http.Request, key string) *string {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil
	}
	return &raw
}

func (h *NewsHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r, defaultPublishedLimit)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	var category *types.NewsCategory
	if raw := optionalQuery(r, "category"); raw != nil {
		c := types.NewsCategory(*raw)
		category = &c
	}

	result, err := h.news.ListPublished(r.Context(), category, page)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeNewsPage(w, result)
}

func (h *NewsHandler) ListAdmin(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r, defaultAdminNewsLimit)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	var filter types.NewsFilter
	if raw := optionalQuery(r, "category"); raw != nil {
		c := types.NewsCategory(*raw)
		filter.Category = &c
	}
	if raw := optionalQuery(r, "priority"); raw != nil {
		p := types.NewsPriority(*raw)
		filter.Priority = &p
	}
	if raw := optionalQuery(r, "isPublished"); raw != nil {
		published := *raw == "true"
		filter.IsPublished = &published
	}

	result, err := h.news.ListAdmin(r.Context(), filter, page)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeNewsPage(w, result)
}

// Article returns one article; public reads of a published article count
// as a view.
func (h *NewsHandler) Article(w http.ResponseWriter, r *http.Request) {
	_, admin := identityFromContext(r.Context())
	news, err := h.news.Article(r.Context(), urlID(r), admin)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"news": news})
}

func (h *NewsHandler) Like(w http.ResponseWriter, r *http.Request) {
	likes, err := h.news.Like(r.Context(), urlID(r))
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"message": "News article liked!", "likes": likes})
}

func (h *NewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.NewsInput
	image, err := decodeBody(r, &in, formFieldImage, prepareNewsForm)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	news, err := h.news.Create(r.Context(), in, image)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusCreated, envelope{"message": "News article created successfully!", "news": news})
}

func (h *NewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.NewsInput
	image, err := decodeBody(r, &in, formFieldImage, prepareNewsForm)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	news, err := h.news.Update(r.Context(), urlID(r), in, image)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"message": "News article updated successfully!", "news": news})
}

func (h *NewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.news.Delete(r.Context(), urlID(r)); err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"message": "News article deleted successfully!"})
}

func (h *NewsHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	news, err := h.news.TogglePublish(r.Context(), urlID(r))
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	state := "unpublished"
	if news.IsPublished {
		state = "published"
	}
	writeSuccess(w, http.StatusOK, envelope{
		"message": "News article " + state + " successfully!",
		"news":    news,
	})
}

func (h *NewsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.news.Stats(r.Context())
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"stats": stats})
}
