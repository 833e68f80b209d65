package source

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
)

// RainforestAdapter - основной провайдер Amazon (Rainforest-подобный API, ключ в query)
type RainforestAdapter struct {
	client *ProviderClient
	domain string
}

func NewRainforestAdapter(client *ProviderClient) *RainforestAdapter {
	return &RainforestAdapter{client: client, domain: "amazon.com"}
}

func (a *RainforestAdapter) Name() string     { return a.client.Name() }
func (a *RainforestAdapter) Configured() bool { return a.client.Configured() }

type rainforestResponse struct {
	Product struct {
		Title string `json:"title"`
	} `json:"product"`
	Reviews []rainforestReview `json:"reviews"`
}

type rainforestReview struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Body   string  `json:"body"`
	Rating float64 `json:"rating"`
	Date   struct {
		Raw string `json:"raw"`
		UTC string `json:"utc"`
	} `json:"date"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
	VerifiedPurchase bool `json:"verified_purchase"`
}

func (a *RainforestAdapter) Fetch(ctx context.Context, asin string, opts entity.FetchOptions) (*entity.FetchResult, error) {
	query := url.Values{}
	query.Set("type", "reviews")
	query.Set("amazon_domain", a.domain)
	query.Set("asin", asin)
	if opts.FullSync {
		query.Set("max_page", "10")
	}

	var resp rainforestResponse
	found, err := a.client.GetJSON(ctx, "/request", query, &resp)
	if err != nil || !found {
		return &entity.FetchResult{}, err
	}

	items := make([]entity.RawItem, 0, len(resp.Reviews))
	for _, r := range resp.Reviews {
		items = append(items, mapRainforestReview(r))
	}

	return &entity.FetchResult{Items: limitItems(items, opts.MaxItems), ProductName: resp.Product.Title}, nil
}

func mapRainforestReview(r rainforestReview) entity.RawItem {
	item := entity.RawItem{
		ExternalID: r.ID,
		Title:      r.Title,
		Text:       r.Body,
		AuthorName: r.Profile.Name,
		Verified:   r.VerifiedPurchase,
	}
	if r.Rating > 0 {
		item.Rating = floatPtr(r.Rating)
	}
	if ts, err := time.Parse(time.RFC3339, r.Date.UTC); err == nil {
		item.Timestamp = ts
	}
	return item
}

// ScraperAdapter - резервный провайдер Amazon (скрейпер; id отзыва бывает пустым)
type ScraperAdapter struct {
	client *ProviderClient
}

func NewScraperAdapter(client *ProviderClient) *ScraperAdapter {
	return &ScraperAdapter{client: client}
}

func (a *ScraperAdapter) Name() string     { return a.client.Name() }
func (a *ScraperAdapter) Configured() bool { return a.client.Configured() }

type scraperResponse struct {
	ProductName string          `json:"product_name"`
	Reviews     []scraperReview `json:"reviews"`
}

type scraperReview struct {
	ReviewID string `json:"review_id"`
	Author   string `json:"author"`
	Stars    string `json:"stars"` // "4.0 out of 5 stars"
	Title    string `json:"title"`
	Text     string `json:"text"`
	Date     string `json:"date"` // "Reviewed in the United States on January 5, 2024"
	Verified bool   `json:"verified"`
}

func (a *ScraperAdapter) Fetch(ctx context.Context, asin string, opts entity.FetchOptions) (*entity.FetchResult, error) {
	query := url.Values{}
	query.Set("asin", asin)
	if opts.MaxItems > 0 {
		query.Set("limit", strconv.Itoa(opts.MaxItems))
	}

	var resp scraperResponse
	found, err := a.client.GetJSON(ctx, "/amazon/reviews", query, &resp)
	if err != nil || !found {
		return &entity.FetchResult{}, err
	}

	items := make([]entity.RawItem, 0, len(resp.Reviews))
	for _, r := range resp.Reviews {
		items = append(items, mapScraperReview(r))
	}

	return &entity.FetchResult{Items: limitItems(items, opts.MaxItems), ProductName: resp.ProductName}, nil
}

var (
	starsRe       = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)`)
	scrapedDateRe = regexp.MustCompile(`([A-Z][a-z]+ \d{1,2}, \d{4})\s*$`)
)

func mapScraperReview(r scraperReview) entity.RawItem {
	item := entity.RawItem{
		ExternalID: r.ReviewID,
		Title:      strings.TrimSpace(r.Title),
		Text:       strings.TrimSpace(r.Text),
		AuthorName: strings.TrimSpace(r.Author),
		Verified:   r.Verified,
	}
	if m := starsRe.FindStringSubmatch(r.Stars); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			item.Rating = floatPtr(v)
		}
	}
	if m := scrapedDateRe.FindStringSubmatch(r.Date); m != nil {
		if ts, err := time.Parse("January 2, 2006", m[1]); err == nil {
			item.Timestamp = ts
		}
	}
	return item
}

func limitItems(items []entity.RawItem, max int) []entity.RawItem {
	if max > 0 && len(items) > max {
		return items[:max]
	}
	return items
}
