package entity

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Marketplace string

const (
	MarketplaceAmazon  Marketplace = "Amazon"
	MarketplaceWalmart Marketplace = "Walmart"
	MarketplaceShopify Marketplace = "Shopify"
	MarketplaceMailbox Marketplace = "Mailbox"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Sentiments фиксированный порядок для аналитики
var Sentiments = []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

type ReviewStatus string

const (
	StatusOpen       ReviewStatus = "open"
	StatusInProgress ReviewStatus = "in_progress"
	StatusResolved   ReviewStatus = "resolved"
)

var Statuses = []ReviewStatus{StatusOpen, StatusInProgress, StatusResolved}

func (s ReviewStatus) Valid() bool {
	return s == StatusOpen || s == StatusInProgress || s == StatusResolved
}

type Category string

const (
	CategoryProductQuality     Category = "Product Quality"
	CategoryProductPerformance Category = "Product Performance"
	CategoryShippingDelivery   Category = "Shipping & Delivery"
	CategoryPackaging          Category = "Packaging"
	CategoryCustomerService    Category = "Customer Service"
	CategoryValuePricing       Category = "Value & Pricing"
	CategorySizingFit          Category = "Sizing & Fit"
	CategoryColorAppearance    Category = "Color & Appearance"
	CategorySetupInstructions  Category = "Setup & Instructions"
	CategoryCompatibility      Category = "Compatibility"
	CategorySafetyConcern      Category = "Safety Concern"
	CategoryPraiseSatisfaction Category = "Praise & Satisfaction"
)

// Categories все двенадцать стандартных категорий в порядке отображения
var Categories = []Category{
	CategoryProductQuality,
	CategoryProductPerformance,
	CategoryShippingDelivery,
	CategoryPackaging,
	CategoryCustomerService,
	CategoryValuePricing,
	CategorySizingFit,
	CategoryColorAppearance,
	CategorySetupInstructions,
	CategoryCompatibility,
	CategorySafetyConcern,
	CategoryPraiseSatisfaction,
}

// Review - единица обратной связи из любого источника
// Ключ дедупликации: (marketplace, external_review_id, owner_id)
type Review struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ExternalReviewID string             `json:"external_review_id,omitempty" bson:"external_review_id,omitempty"`
	Marketplace      Marketplace        `json:"marketplace" bson:"marketplace"`
	OwnerID          string             `json:"owner_id" bson:"owner_id"`

	Title         string `json:"title,omitempty" bson:"title,omitempty"`
	Content       string `json:"content" bson:"content"`
	CustomerName  string `json:"customer_name" bson:"customer_name"`
	CustomerEmail string `json:"customer_email,omitempty" bson:"customer_email,omitempty"`
	Rating        int    `json:"rating" bson:"rating"` // 0 - без оценки (email)

	Sentiment         Sentiment      `json:"sentiment" bson:"sentiment"`
	Category          Category       `json:"category" bson:"category"`
	Severity          Severity       `json:"severity" bson:"severity"`
	AISuggestedReply  string         `json:"ai_suggested_reply" bson:"ai_suggested_reply"`
	AIAnalysisDetails map[string]any `json:"ai_analysis_details,omitempty" bson:"ai_analysis_details,omitempty"`

	Status    ReviewStatus `json:"status" bson:"status"`
	ProductID string       `json:"product_id,omitempty" bson:"product_id,omitempty"`
	Verified  bool         `json:"verified" bson:"verified"`

	CreatedAt   time.Time  `json:"created_at" bson:"created_at"` // время отзыва у провайдера
	RespondedAt *time.Time `json:"responded_at,omitempty" bson:"responded_at,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
	ImportedAt  time.Time  `json:"imported_at" bson:"imported_at"`
}

// Product - отслеживаемый товар или "ящик" для email
type Product struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Platform     string    `json:"platform" gorm:"not null;uniqueIndex:idx_tracked_product_owner"`
	ProductID    string    `json:"product_id" gorm:"column:product_id;not null;uniqueIndex:idx_tracked_product_owner"`
	ProductName  string    `json:"product_name" gorm:"not null;default:''"`
	OwnerID      string    `json:"owner_id" gorm:"not null;uniqueIndex:idx_tracked_product_owner"`
	LastImported time.Time `json:"last_imported"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Product) TableName() string {
	return "tracked_products"
}

type HistoryAction string

const (
	HistoryActionDeleted  HistoryAction = "deleted"
	HistoryActionRestored HistoryAction = "restored"
)

// ProductHistory - запись журнала удалений товаров (аудит и отмена)
type ProductHistory struct {
	ID             uuid.UUID     `json:"id"`
	Platform       string        `json:"platform"`
	ProductID      string        `json:"product_id"`
	ProductName    string        `json:"product_name"`
	OwnerID        string        `json:"owner_id"`
	Action         HistoryAction `json:"action"`
	ReviewsDeleted bool          `json:"reviews_deleted"`
	ReviewCount    int64         `json:"review_count"`
	CreatedAt      time.Time     `json:"created_at"`
}

// SetStatus меняет статус и проставляет отметки времени для метрик реакции.
// Первый уход из open фиксирует responded_at, resolved фиксирует resolved_at
func (r *Review) SetStatus(status ReviewStatus, now time.Time) {
	r.Status = status
	if status != StatusOpen && r.RespondedAt == nil {
		t := now
		r.RespondedAt = &t
	}
	if status == StatusResolved {
		t := now
		r.ResolvedAt = &t
	} else {
		r.ResolvedAt = nil
	}
}
