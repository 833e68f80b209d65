package dedup

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/pkg/logger"

	"golang.org/x/crypto/blake2b"
)

// SurrogatePrefix отличает вычисленные id от id провайдера
const SurrogatePrefix = "sur_"

const textPrefixRunes = 100

// ReviewLookup - индексированный поиск по ключу дедупликации в основном хранилище
type ReviewLookup interface {
	Exists(ctx context.Context, marketplace entity.Marketplace, externalID, ownerID string) (bool, error)
}

// KnownCache - быстрый путь через множество известных id
type KnownCache interface {
	IsKnown(ctx context.Context, marketplace entity.Marketplace, ownerID, externalID string) (bool, error)
}

// Gate отбрасывает уже импортированные элементы до обогащения.
// Только чтение: безопасен для повторных и параллельных вызовов
type Gate struct {
	reviews ReviewLookup
	cache   KnownCache
}

// NewGate создает шлюз дедупликации. cache может быть nil
func NewGate(reviews ReviewLookup, cache KnownCache) *Gate {
	return &Gate{reviews: reviews, cache: cache}
}

// Exists проверяет (marketplace, externalID, ownerID): сначала кэш, затем хранилище.
// Ошибка кэша не фатальна, решение принимает хранилище
func (g *Gate) Exists(ctx context.Context, marketplace entity.Marketplace, externalID, ownerID string) (bool, error) {
	if g.cache != nil {
		known, err := g.cache.IsKnown(ctx, marketplace, ownerID, externalID)
		if err != nil {
			logger.Warn().Err(err).
				Str("external_id", externalID).
				Msg("Known-key cache unavailable, falling back to store")
		} else if known {
			return true, nil
		}
	}

	exists, err := g.reviews.Exists(ctx, marketplace, externalID, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate: %w", err)
	}
	return exists, nil
}

// FilterResult - разбиение пачки после дедупликации
type FilterResult struct {
	Fresh      []entity.RawItem
	Duplicates int
	Failed     int
}

// Filter проставляет суррогатные id элементам без ExternalID и отбрасывает
// известные. Повтор id внутри одной пачки тоже считается дубликатом.
// Ошибка проверки элемента не прерывает пачку, элемент считается пропущенным
func (g *Gate) Filter(ctx context.Context, marketplace entity.Marketplace, ownerID string, items []entity.RawItem) FilterResult {
	result := FilterResult{Fresh: make([]entity.RawItem, 0, len(items))}
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		if item.ExternalID == "" {
			item.ExternalID = SurrogateID(item)
		}

		if _, dup := seen[item.ExternalID]; dup {
			result.Duplicates++
			continue
		}
		seen[item.ExternalID] = struct{}{}

		exists, err := g.Exists(ctx, marketplace, item.ExternalID, ownerID)
		if err != nil {
			logger.Error().Err(err).
				Str("marketplace", string(marketplace)).
				Str("owner_id", ownerID).
				Str("external_id", item.ExternalID).
				Str("stage", "dedup").
				Msg("Duplicate check failed, item skipped")
			result.Failed++
			continue
		}
		if exists {
			result.Duplicates++
			continue
		}

		result.Fresh = append(result.Fresh, item)
	}

	return result
}

// SurrogateID детерминированно вычисляет id для элементов без id провайдера:
// blake2b от автора, оценки, даты и начала текста
func SurrogateID(item entity.RawItem) string {
	rating := ""
	if item.Rating != nil {
		rating = strconv.FormatFloat(*item.Rating, 'f', 1, 64)
	}
	date := ""
	if !item.Timestamp.IsZero() {
		date = item.Timestamp.UTC().Format("2006-01-02")
	}

	text := []rune(strings.TrimSpace(item.Text))
	if len(text) > textPrefixRunes {
		text = text[:textPrefixRunes]
	}

	composite := strings.Join([]string{
		strings.ToLower(strings.TrimSpace(item.AuthorName)),
		rating,
		date,
		string(text),
	}, "|")

	sum := blake2b.Sum256([]byte(composite))
	return SurrogatePrefix + hex.EncodeToString(sum[:16])
}
