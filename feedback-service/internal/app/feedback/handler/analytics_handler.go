package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"feedbackhub/feedback-service/internal/app/feedback/analytics"
	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/feedback-service/internal/app/feedback/service"
)

const dateLayout = "2006-01-02"

type AnalyticsHandler struct {
	analyticsService service.AnalyticsServiceInterface
	validator        *validator.Validate
}

func NewAnalyticsHandler(analyticsService service.AnalyticsServiceInterface) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		validator:        validator.New(),
	}
}

// Get - GET /analytics. Списочные фильтры принимают значения через запятую
// или повтором параметра
func (h *AnalyticsHandler) Get(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	filters, err := h.parseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid filters", Message: err.Error()})
		return
	}

	snapshot, err := h.analyticsService.Get(c.Request.Context(), owner, filters)
	if err != nil {
		respondError(c, err, "Failed to build analytics")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (h *AnalyticsHandler) parseFilters(c *gin.Context) (analytics.Filters, error) {
	var f analytics.Filters

	if raw := c.Query("from"); raw != "" {
		from, _, err := parseTime(raw)
		if err != nil {
			return f, fmt.Errorf("from: %w", err)
		}
		f.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, dateOnly, err := parseTime(raw)
		if err != nil {
			return f, fmt.Errorf("to: %w", err)
		}
		// дата без времени включает весь день
		if dateOnly {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = &to
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, fmt.Errorf("to is before from")
	}

	f.ProductID = c.Query("product_id")

	for _, v := range listQuery(c, "marketplace") {
		m, ok := parseMarketplace(v)
		if !ok {
			return f, fmt.Errorf("unknown marketplace %q", v)
		}
		f.Marketplaces = append(f.Marketplaces, m)
	}

	for _, v := range listQuery(c, "sentiment") {
		v = strings.ToLower(v)
		if err := h.validator.Var(v, "oneof=positive neutral negative"); err != nil {
			return f, fmt.Errorf("unknown sentiment %q", v)
		}
		f.Sentiments = append(f.Sentiments, entity.Sentiment(v))
	}

	for _, v := range listQuery(c, "status") {
		status := entity.ReviewStatus(strings.ToLower(v))
		if !status.Valid() {
			return f, fmt.Errorf("unknown status %q", v)
		}
		f.Statuses = append(f.Statuses, status)
	}

	for _, v := range listQuery(c, "rating") {
		rating, err := strconv.Atoi(v)
		if err != nil || rating < 1 || rating > 5 {
			return f, fmt.Errorf("rating must be between 1 and 5, got %q", v)
		}
		f.Ratings = append(f.Ratings, rating)
	}

	return f, nil
}

func parseTime(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t.UTC(), true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expected YYYY-MM-DD or RFC3339, got %q", raw)
	}
	return t.UTC(), false, nil
}

func listQuery(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseMarketplace(v string) (entity.Marketplace, bool) {
	for _, m := range []entity.Marketplace{
		entity.MarketplaceAmazon,
		entity.MarketplaceWalmart,
		entity.MarketplaceShopify,
		entity.MarketplaceMailbox,
	} {
		if strings.EqualFold(v, string(m)) {
			return m, true
		}
	}
	return "", false
}
