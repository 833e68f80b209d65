package entity

import "time"

// SourceKind - вид источника для оркестратора
type SourceKind string

const (
	SourceAmazon  SourceKind = "amazon"
	SourceWalmart SourceKind = "walmart"
	SourceShopify SourceKind = "shopify"
	SourceEmail   SourceKind = "email"
)

func (k SourceKind) Valid() bool {
	switch k {
	case SourceAmazon, SourceWalmart, SourceShopify, SourceEmail:
		return true
	}
	return false
}

// Marketplace площадка, под которой сохраняются отзывы источника
func (k SourceKind) Marketplace() Marketplace {
	switch k {
	case SourceAmazon:
		return MarketplaceAmazon
	case SourceWalmart:
		return MarketplaceWalmart
	case SourceShopify:
		return MarketplaceShopify
	default:
		return MarketplaceMailbox
	}
}

// Platform значение Product.Platform для источника
func (k SourceKind) Platform() string {
	return string(k)
}

type SyncType string

const (
	SyncQuick SyncType = "quick"
	SyncFull  SyncType = "full"
)

// RawItem - единый формат элемента от любого адаптера
type RawItem struct {
	ExternalID  string    `json:"external_id,omitempty"`
	Text        string    `json:"text"`
	Title       string    `json:"title,omitempty"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email,omitempty"`
	Rating      *float64  `json:"rating,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Verified    bool      `json:"verified"`
}

type FetchOptions struct {
	MaxItems int
	FullSync bool
	Since    time.Time // нижняя граница для почтовых источников
}

type FetchResult struct {
	Items       []RawItem
	ProductName string
}

// EmailMessage - одно письмо из почтового ящика
type EmailMessage struct {
	ID          string    `json:"id"`
	ThreadID    string    `json:"thread_id,omitempty"`
	InReplyTo   string    `json:"in_reply_to,omitempty"`
	Subject     string    `json:"subject"`
	FromName    string    `json:"from_name"`
	FromAddress string    `json:"from_address"`
	Body        string    `json:"body"`
	ReceivedAt  time.Time `json:"received_at"`
	Unread      bool      `json:"unread"`
}

// Thread - группа писем одного разговора, новые сверху
type Thread struct {
	Key           string         `json:"key"`
	Subject       string         `json:"subject"`
	Messages      []EmailMessage `json:"messages"`
	UnreadCount   int            `json:"unread_count"`
	LastMessageAt time.Time      `json:"last_message_at"`
}

// Classification - результат классификации отзыва моделью
type Classification struct {
	Sentiment Sentiment `json:"sentiment"`
	Category  Category  `json:"category"`
	Severity  Severity  `json:"severity"`
	Reasoning string    `json:"reasoning"`
}

// IngestRequest - запуск импорта (HTTP, Kafka, cron)
type IngestRequest struct {
	Source     SourceKind `json:"source"`
	Identifier string     `json:"identifier"`
	OwnerID    string     `json:"owner_id"`
	SyncType   SyncType   `json:"sync_type,omitempty"`
	MaxItems   int        `json:"max_items,omitempty"`
}

// ImportResult - итог одного запуска оркестратора
// Skipped включает и дубликаты, и элементы с ошибками
type ImportResult struct {
	Source      SourceKind `json:"source"`
	Identifier  string     `json:"identifier"`
	Imported    int        `json:"imported"`
	Skipped     int        `json:"skipped"`
	Duplicates  int        `json:"duplicates"`
	Errors      int        `json:"errors"`
	ProductName string     `json:"product_name,omitempty"`
	ServedBy    string     `json:"served_by,omitempty"`
	Message     string     `json:"message"`
	FinishedAt  time.Time  `json:"finished_at"`
}

// ReviewEvent - событие в топик review_events
type ReviewEvent struct {
	EventType        string      `json:"event_type"` // REVIEW_IMPORTED
	ReviewID         string      `json:"review_id"`
	Marketplace      Marketplace `json:"marketplace"`
	ExternalReviewID string      `json:"external_review_id,omitempty"`
	OwnerID          string      `json:"owner_id"`
	ProductID        string      `json:"product_id,omitempty"`
	Rating           int         `json:"rating"`
	Sentiment        Sentiment   `json:"sentiment"`
	Severity         Severity    `json:"severity"`
	Category         Category    `json:"category"`
	Timestamp        time.Time   `json:"timestamp"`
}

const EventReviewImported = "REVIEW_IMPORTED"
