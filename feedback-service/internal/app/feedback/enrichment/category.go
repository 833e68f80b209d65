package enrichment

import (
	"regexp"
	"strings"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
)

type categoryRule struct {
	pattern  *regexp.Regexp
	category entity.Category
}

// порядок важен: первое совпадение выигрывает
var categoryRules = []categoryRule{
	{regexp.MustCompile(`\b(safety|safe|danger|hazard|injur|burn|fire|toxic|recall|shock)`), entity.CategorySafetyConcern},
	{regexp.MustCompile(`\b(ship|deliver|arriv|courier|transit|tracking|late deliver)`), entity.CategoryShippingDelivery},
	{regexp.MustCompile(`\b(packag|box|wrap|seal)`), entity.CategoryPackaging},
	{regexp.MustCompile(`\b(service|support|staff|refund|return|communicat|seller|respon)`), entity.CategoryCustomerService},
	{regexp.MustCompile(`\b(pric|value|cost|expensive|cheap|money|overpriced)`), entity.CategoryValuePricing},
	{regexp.MustCompile(`\b(size|sizing|fit|small|large|tight|loose)`), entity.CategorySizingFit},
	{regexp.MustCompile(`\b(colou?r|appearance|look|design|style|aesthetic|finish)`), entity.CategoryColorAppearance},
	{regexp.MustCompile(`\b(setup|set up|set-up|install|instruction|manual|assembl)`), entity.CategorySetupInstructions},
	{regexp.MustCompile(`\b(compatib|connect|pair|bluetooth|work with)`), entity.CategoryCompatibility},
	{regexp.MustCompile(`\b(praise|satisf|love|great|excellent|happy|recommend|compliment)`), entity.CategoryPraiseSatisfaction},
	{regexp.MustCompile(`\b(quality|defect|broke|broken|damage|durab|material|build|flimsy)`), entity.CategoryProductQuality},
	{regexp.MustCompile(`\b(perform|function|battery|speed|slow|work)`), entity.CategoryProductPerformance},
}

// NormalizeCategory отображает произвольную метку модели на одну из двенадцати
// стандартных категорий. Функция тотальна: неизвестное -> Product Performance
func NormalizeCategory(label string) entity.Category {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if normalized == "" {
		return entity.CategoryProductPerformance
	}

	for _, c := range entity.Categories {
		if normalized == strings.ToLower(string(c)) {
			return c
		}
	}

	for _, rule := range categoryRules {
		if rule.pattern.MatchString(normalized) {
			return rule.category
		}
	}

	return entity.CategoryProductPerformance
}

// NormalizeSentiment приводит метку к positive|neutral|negative, по умолчанию neutral
func NormalizeSentiment(label string) entity.Sentiment {
	normalized := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.HasPrefix(normalized, "pos"):
		return entity.SentimentPositive
	case strings.HasPrefix(normalized, "neg"):
		return entity.SentimentNegative
	default:
		return entity.SentimentNeutral
	}
}

// NormalizeSeverity приводит метку к low|medium|high|critical, по умолчанию medium
func NormalizeSeverity(label string) entity.Severity {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "low", "minor":
		return entity.SeverityLow
	case "high", "major":
		return entity.SeverityHigh
	case "critical", "urgent", "severe":
		return entity.SeverityCritical
	default:
		return entity.SeverityMedium
	}
}
