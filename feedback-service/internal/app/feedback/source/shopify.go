package source

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
)

// ShopifyAdapter читает отзывы магазина через Judge.me-подобный API
type ShopifyAdapter struct {
	client     *ProviderClient
	shopDomain string
}

func NewShopifyAdapter(client *ProviderClient, shopDomain string) *ShopifyAdapter {
	return &ShopifyAdapter{client: client, shopDomain: shopDomain}
}

func (a *ShopifyAdapter) Name() string     { return a.client.Name() }
func (a *ShopifyAdapter) Configured() bool { return a.client.Configured() }

type shopifyResponse struct {
	ProductTitle string          `json:"product_title"`
	Reviews      []shopifyReview `json:"reviews"`
}

type shopifyReview struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Body     string  `json:"body"`
	Rating   float64 `json:"rating"`
	Reviewer struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"reviewer"`
	CreatedAt string `json:"created_at"`
	Verified  string `json:"verified"` // buyer, email, nothing
}

func (a *ShopifyAdapter) Fetch(ctx context.Context, product string, opts entity.FetchOptions) (*entity.FetchResult, error) {
	query := url.Values{}
	if a.shopDomain != "" {
		query.Set("shop_domain", a.shopDomain)
	}
	if shopifyIDRe.MatchString(product) {
		query.Set("product_id", product)
	} else {
		query.Set("product_handle", product)
	}
	perPage := opts.MaxItems
	if perPage <= 0 || perPage > 100 {
		perPage = 100
	}
	query.Set("per_page", strconv.Itoa(perPage))

	var resp shopifyResponse
	found, err := a.client.GetJSON(ctx, "/api/v1/reviews", query, &resp)
	if err != nil || !found {
		return &entity.FetchResult{}, err
	}

	items := make([]entity.RawItem, 0, len(resp.Reviews))
	for _, r := range resp.Reviews {
		items = append(items, mapShopifyReview(r))
	}

	return &entity.FetchResult{Items: limitItems(items, opts.MaxItems), ProductName: resp.ProductTitle}, nil
}

func mapShopifyReview(r shopifyReview) entity.RawItem {
	item := entity.RawItem{
		Title:       r.Title,
		Text:        r.Body,
		AuthorName:  r.Reviewer.Name,
		AuthorEmail: r.Reviewer.Email,
		Verified:    r.Verified == "buyer",
	}
	if r.ID > 0 {
		item.ExternalID = strconv.FormatInt(r.ID, 10)
	}
	if r.Rating > 0 {
		item.Rating = floatPtr(r.Rating)
	}
	if ts, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
		item.Timestamp = ts
	}
	return item
}
