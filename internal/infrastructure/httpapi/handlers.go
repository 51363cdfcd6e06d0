package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"NewsRecommender/internal/domain"
	"NewsRecommender/internal/usecase"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	messageTrackingSkipped = "Tracking skipped for anonymous user"
)

type handlers struct {
	services Services
	logger   *slog.Logger
}

type trackRequest struct {
	ArticleURL      string `json:"article_url"`
	ArticleTitle    string `json:"article_title"`
	Category        string `json:"category"`
	ReadingTime     int    `json:"reading_time"`
	InteractionType string `json:"interaction_type"`
}

type preferencesRequest struct {
	Categories []string `json:"categories"`
}

type personalizedResponse struct {
	Articles             []domain.ScoredArticle `json:"articles"`
	Count                int                    `json:"count"`
	Categories           []string               `json:"categories"`
	ReadingHistoryCount  int                    `json:"reading_history_count"`
	RecommendationEngine string                 `json:"recommendation_engine"`
	Mode                 string                 `json:"mode"`
	Degraded             bool                   `json:"degraded"`
	Cached               bool                   `json:"cached"`
	RequestID            string                 `json:"request_id"`
	Message              string                 `json:"message,omitempty"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *handlers) updateArticles(c *gin.Context) {
	if h.services.Pipeline == nil {
		h.fail(c, errors.New("ingestion is not configured"))
		return
	}
	report, err := h.services.Pipeline.Run(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     statusSuccess,
		"count":      report.Stored,
		"fetched":    report.Fetched,
		"duplicates": report.Duplicates,
		"failed":     report.Failed,
	})
}

func (h *handlers) listArticles(c *gin.Context) {
	articles, err := h.services.Articles.All(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": nonNil(articles), "count": len(articles)})
}

func (h *handlers) filteredArticles(c *gin.Context) {
	res, err := h.services.Articles.Filtered(c.Request.Context(), username(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	body := gin.H{"articles": res.Articles, "count": len(res.Articles)}
	if res.Message != "" {
		body["message"] = res.Message
	} else {
		body["categories"] = res.Categories
	}
	c.JSON(http.StatusOK, body)
}

func (h *handlers) personalized(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		h.fail(c, err)
		return
	}

	res, err := h.services.Recommendations.Recommend(c.Request.Context(), username(c), limit)
	if err != nil {
		h.fail(c, err)
		return
	}

	categories := res.Categories
	if categories == nil {
		categories = []string{}
	}
	c.JSON(http.StatusOK, personalizedResponse{
		Articles:             res.Articles,
		Count:                len(res.Articles),
		Categories:           categories,
		ReadingHistoryCount:  res.ReadingHistoryCount,
		RecommendationEngine: res.Engine,
		Mode:                 string(res.Mode),
		Degraded:             res.Degraded(),
		Cached:               res.Cached,
		RequestID:            c.GetString(requestIDKey),
		Message:              res.Message,
	})
}

func (h *handlers) track(c *gin.Context) {
	user := username(c)
	if user == "" {
		c.JSON(http.StatusOK, gin.H{"status": statusSuccess, "message": messageTrackingSkipped})
		return
	}

	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	entry, err := h.services.History.Track(c.Request.Context(), domain.ReadingEntry{
		Username:        user,
		ArticleURL:      req.ArticleURL,
		ArticleTitle:    req.ArticleTitle,
		Category:        req.Category,
		ReadingTime:     req.ReadingTime,
		InteractionType: domain.InteractionType(req.InteractionType),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSuccess, "entry": entry})
}

func (h *handlers) preferences(c *gin.Context) {
	categories, err := h.services.Preferences.Categories(c.Request.Context(), username(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *handlers) updatePreferences(c *gin.Context) {
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	categories, err := h.services.Preferences.Update(c.Request.Context(), username(c), req.Categories)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSuccess, "categories": categories})
}

func (h *handlers) readingHistory(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		h.fail(c, err)
		return
	}
	entries, err := h.services.History.Recent(c.Request.Context(), username(c), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	if entries == nil {
		entries = []domain.ReadingEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"history": entries, "count": len(entries)})
}

// fail maps invalid input to 400 and everything else to 500.
func (h *handlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			"route", c.FullPath(),
			"request_id", c.GetString(requestIDKey),
			"error", err,
		)
		c.JSON(status, gin.H{"status": statusError, "message": "internal error"})
		return
	}
	c.JSON(status, gin.H{"status": statusError, "message": err.Error()})
}

// queryInt returns 0 when the parameter is absent.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, name)
	}
	return v, nil
}

func nonNil(articles []domain.Article) []domain.Article {
	if articles == nil {
		return []domain.Article{}
	}
	return articles
}
