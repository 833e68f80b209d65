package analytics

import (
	"math"
	"sort"
	"strconv"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/enrichment"
	"feedbackhub/feedback-service/internal/app/feedback/entity"
)

const (
	trendWeeks          = 12
	responseCapHours    = 72.0
	resolvedWithinHours = 48.0
)

var marketplaces = []entity.Marketplace{
	entity.MarketplaceAmazon,
	entity.MarketplaceWalmart,
	entity.MarketplaceShopify,
	entity.MarketplaceMailbox,
}

type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type SeverityStatusRow struct {
	Severity   entity.Severity `json:"severity"`
	Open       int             `json:"open"`
	InProgress int             `json:"in_progress"`
	Resolved   int             `json:"resolved"`
}

type WeekBucket struct {
	WeekStart time.Time `json:"week_start"`
	Label     string    `json:"label"`
	Positive  int       `json:"positive"`
	Neutral   int       `json:"neutral"`
	Negative  int       `json:"negative"`
	Total     int       `json:"total"`
}

// ResponseMetrics - время реакции ограничено 72 часами на отзыв,
// ResolvedWithin48h - доля решенных за 48 часов среди всех решенных
type ResponseMetrics struct {
	AvgResponseHours  float64 `json:"avg_response_hours"`
	ResolvedWithin48h float64 `json:"resolved_within_48h"`
	RespondedCount    int     `json:"responded_count"`
	ResolvedCount     int     `json:"resolved_count"`
}

// Snapshot - производная статистика, не хранится, считается на каждый запрос
type Snapshot struct {
	Total          int                 `json:"total"`
	Sentiments     []Bucket            `json:"sentiments"`
	Categories     []Bucket            `json:"categories"`
	Marketplaces   []Bucket            `json:"marketplaces"`
	Severities     []Bucket            `json:"severities"`
	Ratings        []Bucket            `json:"ratings"`
	Statuses       []Bucket            `json:"statuses"`
	SeverityStatus []SeverityStatusRow `json:"severity_status"`
	WeeklyTrend    []WeekBucket        `json:"weekly_trend"`
	Response       ResponseMetrics     `json:"response"`
}

// Aggregate - чистая функция: одинаковый вход дает одинаковый выход
func Aggregate(reviews []entity.Review, filters Filters) Snapshot {
	sentiments := map[entity.Sentiment]int{}
	categories := map[entity.Category]int{}
	byMarketplace := map[entity.Marketplace]int{}
	severities := map[entity.Severity]int{}
	ratings := map[int]int{}
	statuses := map[entity.ReviewStatus]int{}
	matrix := map[entity.Severity]map[entity.ReviewStatus]int{}
	weeks := map[time.Time]*WeekBucket{}

	var (
		total         int
		responseHours float64
		responded     int
		resolved      int
		resolvedFast  int
	)

	for _, r := range reviews {
		if !filters.Match(r) {
			continue
		}
		total++

		sentiment := enrichment.NormalizeSentiment(string(r.Sentiment))
		severity := enrichment.NormalizeSeverity(string(r.Severity))

		sentiments[sentiment]++
		categories[enrichment.NormalizeCategory(string(r.Category))]++
		byMarketplace[r.Marketplace]++
		severities[severity]++
		if r.Rating >= 1 {
			ratings[min(r.Rating, 5)]++
		}
		statuses[r.Status]++

		if matrix[severity] == nil {
			matrix[severity] = map[entity.ReviewStatus]int{}
		}
		matrix[severity][r.Status]++

		start := WeekStart(r.CreatedAt)
		week, ok := weeks[start]
		if !ok {
			week = &WeekBucket{WeekStart: start, Label: WeekLabel(start)}
			weeks[start] = week
		}
		week.Total++
		switch sentiment {
		case entity.SentimentPositive:
			week.Positive++
		case entity.SentimentNegative:
			week.Negative++
		default:
			week.Neutral++
		}

		if r.RespondedAt != nil && r.Status != entity.StatusOpen {
			responded++
			responseHours += clampHours(r.RespondedAt.Sub(r.CreatedAt).Hours(), responseCapHours)
		}
		if r.Status == entity.StatusResolved && r.ResolvedAt != nil {
			resolved++
			if r.ResolvedAt.Sub(r.CreatedAt).Hours() <= resolvedWithinHours {
				resolvedFast++
			}
		}
	}

	snapshot := Snapshot{
		Total:          total,
		Sentiments:     make([]Bucket, 0, len(entity.Sentiments)),
		Categories:     make([]Bucket, 0, len(entity.Categories)),
		Marketplaces:   make([]Bucket, 0, len(marketplaces)),
		Severities:     make([]Bucket, 0, len(entity.Severities)),
		Ratings:        make([]Bucket, 0, 5),
		Statuses:       make([]Bucket, 0, len(entity.Statuses)),
		SeverityStatus: make([]SeverityStatusRow, 0, len(entity.Severities)),
		WeeklyTrend:    trend(weeks),
	}

	for _, s := range entity.Sentiments {
		snapshot.Sentiments = append(snapshot.Sentiments, Bucket{Label: string(s), Count: sentiments[s]})
	}
	for _, c := range entity.Categories {
		snapshot.Categories = append(snapshot.Categories, Bucket{Label: string(c), Count: categories[c]})
	}
	for _, m := range marketplaces {
		snapshot.Marketplaces = append(snapshot.Marketplaces, Bucket{Label: string(m), Count: byMarketplace[m]})
	}
	for _, s := range entity.Severities {
		snapshot.Severities = append(snapshot.Severities, Bucket{Label: string(s), Count: severities[s]})
		snapshot.SeverityStatus = append(snapshot.SeverityStatus, SeverityStatusRow{
			Severity:   s,
			Open:       matrix[s][entity.StatusOpen],
			InProgress: matrix[s][entity.StatusInProgress],
			Resolved:   matrix[s][entity.StatusResolved],
		})
	}
	for rating := 1; rating <= 5; rating++ {
		snapshot.Ratings = append(snapshot.Ratings, Bucket{Label: ratingLabel(rating), Count: ratings[rating]})
	}
	for _, s := range entity.Statuses {
		snapshot.Statuses = append(snapshot.Statuses, Bucket{Label: string(s), Count: statuses[s]})
	}

	snapshot.Response = ResponseMetrics{RespondedCount: responded, ResolvedCount: resolved}
	if responded > 0 {
		snapshot.Response.AvgResponseHours = round2(responseHours / float64(responded))
	}
	if resolved > 0 {
		snapshot.Response.ResolvedWithin48h = round2(float64(resolvedFast) / float64(resolved))
	}

	return snapshot
}

// WeekStart - полночь воскресенья (UTC) недели, в которую попадает t
func WeekStart(t time.Time) time.Time {
	u := t.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// WeekLabel - "Jan 5 - Jan 11"
func WeekLabel(start time.Time) string {
	return start.Format("Jan 2") + " - " + start.AddDate(0, 0, 6).Format("Jan 2")
}

// trend - последние 12 недель, в которых есть отзывы, по возрастанию
func trend(weeks map[time.Time]*WeekBucket) []WeekBucket {
	out := make([]WeekBucket, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].WeekStart.Before(out[j].WeekStart)
	})
	if len(out) > trendWeeks {
		out = out[len(out)-trendWeeks:]
	}
	return out
}

func ratingLabel(r int) string {
	return strconv.Itoa(r)
}

func clampHours(h, limit float64) float64 {
	return math.Max(0, math.Min(h, limit))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
