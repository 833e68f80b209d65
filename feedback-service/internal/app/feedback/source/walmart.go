package source

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
)

// WalmartUSAdapter - основной провайдер Walmart (walmart.com)
type WalmartUSAdapter struct {
	client *ProviderClient
}

func NewWalmartUSAdapter(client *ProviderClient) *WalmartUSAdapter {
	return &WalmartUSAdapter{client: client}
}

func (a *WalmartUSAdapter) Name() string     { return a.client.Name() }
func (a *WalmartUSAdapter) Configured() bool { return a.client.Configured() }

type walmartUSResponse struct {
	ItemName string            `json:"itemName"`
	Reviews  []walmartUSReview `json:"reviews"`
}

type walmartUSReview struct {
	ReviewID             string   `json:"reviewId"`
	ReviewTitle          string   `json:"reviewTitle"`
	ReviewText           string   `json:"reviewText"`
	Rating               float64  `json:"rating"`
	UserNickname         string   `json:"userNickname"`
	ReviewSubmissionTime string   `json:"reviewSubmissionTime"` // "1/2/2024"
	Badges               []string `json:"badges"`
}

func (a *WalmartUSAdapter) Fetch(ctx context.Context, itemID string, opts entity.FetchOptions) (*entity.FetchResult, error) {
	query := url.Values{}
	query.Set("sort", "submission-desc")
	if opts.MaxItems > 0 {
		query.Set("limit", strconv.Itoa(opts.MaxItems))
	}

	var resp walmartUSResponse
	found, err := a.client.GetJSON(ctx, "/reviews/"+url.PathEscape(itemID), query, &resp)
	if err != nil || !found {
		return &entity.FetchResult{}, err
	}

	items := make([]entity.RawItem, 0, len(resp.Reviews))
	for _, r := range resp.Reviews {
		items = append(items, mapWalmartUSReview(r))
	}

	return &entity.FetchResult{Items: limitItems(items, opts.MaxItems), ProductName: resp.ItemName}, nil
}

func mapWalmartUSReview(r walmartUSReview) entity.RawItem {
	item := entity.RawItem{
		ExternalID: r.ReviewID,
		Title:      r.ReviewTitle,
		Text:       r.ReviewText,
		AuthorName: r.UserNickname,
	}
	if r.Rating > 0 {
		item.Rating = floatPtr(r.Rating)
	}
	if ts, err := time.Parse("1/2/2006", r.ReviewSubmissionTime); err == nil {
		item.Timestamp = ts
	}
	for _, b := range r.Badges {
		if b == "VerifiedPurchaser" {
			item.Verified = true
		}
	}
	return item
}

// WalmartCAAdapter - региональный резерв (walmart.ca) с другой схемой ответа
type WalmartCAAdapter struct {
	client *ProviderClient
}

func NewWalmartCAAdapter(client *ProviderClient) *WalmartCAAdapter {
	return &WalmartCAAdapter{client: client}
}

func (a *WalmartCAAdapter) Name() string     { return a.client.Name() }
func (a *WalmartCAAdapter) Configured() bool { return a.client.Configured() }

type walmartCAResponse struct {
	Product struct {
		Name string `json:"name"`
	} `json:"product"`
	Reviews []walmartCAReview `json:"reviews"`
}

type walmartCAReview struct {
	ID               string  `json:"id"`
	Headline         string  `json:"headline"`
	Comments         string  `json:"comments"`
	Rating           float64 `json:"rating"`
	Nickname         string  `json:"nickname"`
	SubmittedAt      string  `json:"submittedAt"`
	VerifiedPurchase bool    `json:"verifiedPurchase"`
}

func (a *WalmartCAAdapter) Fetch(ctx context.Context, itemID string, opts entity.FetchOptions) (*entity.FetchResult, error) {
	query := url.Values{}
	query.Set("product", itemID)
	query.Set("lang", "en")

	var resp walmartCAResponse
	found, err := a.client.GetJSON(ctx, "/v2/reviews", query, &resp)
	if err != nil || !found {
		return &entity.FetchResult{}, err
	}

	items := make([]entity.RawItem, 0, len(resp.Reviews))
	for _, r := range resp.Reviews {
		items = append(items, mapWalmartCAReview(r))
	}

	return &entity.FetchResult{Items: limitItems(items, opts.MaxItems), ProductName: resp.Product.Name}, nil
}

func mapWalmartCAReview(r walmartCAReview) entity.RawItem {
	item := entity.RawItem{
		ExternalID: r.ID,
		Title:      r.Headline,
		Text:       r.Comments,
		AuthorName: r.Nickname,
		Verified:   r.VerifiedPurchase,
	}
	if r.Rating > 0 {
		item.Rating = floatPtr(r.Rating)
	}
	if ts, err := time.Parse(time.RFC3339, r.SubmittedAt); err == nil {
		item.Timestamp = ts
	}
	return item
}
