package analytics

import (
	"slices"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
)

// Filters - необязательные условия, объединяются через AND.
// Пустое поле не ограничивает выборку.
type Filters struct {
	From         *time.Time
	To           *time.Time
	ProductID    string
	Marketplaces []entity.Marketplace
	Sentiments   []entity.Sentiment
	Statuses     []entity.ReviewStatus
	Ratings      []int
}

// Match - границы From и To включительные
func (f Filters) Match(r entity.Review) bool {
	if f.From != nil && r.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && r.CreatedAt.After(*f.To) {
		return false
	}
	if f.ProductID != "" && r.ProductID != f.ProductID {
		return false
	}
	if len(f.Marketplaces) > 0 && !slices.Contains(f.Marketplaces, r.Marketplace) {
		return false
	}
	if len(f.Sentiments) > 0 && !slices.Contains(f.Sentiments, r.Sentiment) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, r.Status) {
		return false
	}
	if len(f.Ratings) > 0 && !slices.Contains(f.Ratings, r.Rating) {
		return false
	}
	return true
}
