package prompt

import (
	"fmt"
	"strings"

	"feedbackhub/feedback-service/internal/app/feedback/enrichment"
	"feedbackhub/feedback-service/internal/app/feedback/entity"
)

// maxPromptRunes - сколько текста отзыва уходит в модель
const maxPromptRunes = 4000

// ClassifySystem задает схему ответа классификации
func ClassifySystem() string {
	return `You are a customer feedback analyst for an e-commerce brand. Reply with one valid JSON object only (no markdown, no commentary).

Schema:
{
  "sentiment": "<positive|neutral|negative>",
  "category": "<one of: ` + categoryList() + `>",
  "severity": "<low|medium|high|critical>",
  "reasoning": "<one short sentence>"
}

Severity reflects how urgently the brand must act: safety issues and refund threats are critical, defects are high, minor annoyances are low.`
}

func ClassifyUser(in enrichment.Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", sourceLabel(in.Marketplace))
	if in.Author != "" {
		fmt.Fprintf(&b, "Customer: %s\n", in.Author)
	}
	if in.Rating > 0 {
		fmt.Fprintf(&b, "Rating: %d/5\n", in.Rating)
	}
	if in.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", in.Title)
	}
	fmt.Fprintf(&b, "Text:\n%s", clip(in.Text))
	return b.String()
}

// DraftSystem - черновик ответа клиенту, обычный текст
func DraftSystem() string {
	return `You write replies to customer feedback on behalf of the brand's support team. Be warm, specific to what the customer wrote and under 120 words. Never promise refunds or compensation. Reply with plain text only, no greeting placeholders and no signature.`
}

func DraftUser(in enrichment.Input) string {
	var b strings.Builder
	b.WriteString(ClassifyUser(in))
	if in.Sentiment != "" {
		fmt.Fprintf(&b, "\nSentiment: %s", in.Sentiment)
	}
	if in.Severity != "" {
		fmt.Fprintf(&b, "\nSeverity: %s", in.Severity)
	}
	return b.String()
}

// CombinedSystem - классификация, ответ и название товара одним вызовом (почта)
func CombinedSystem() string {
	return `You triage customer support emails for an e-commerce brand. Reply with one valid JSON object only (no markdown, no commentary).

Schema:
{
  "sentiment": "<positive|neutral|negative>",
  "category": "<one of: ` + categoryList() + `>",
  "severity": "<low|medium|high|critical>",
  "reasoning": "<one short sentence>",
  "reply": "<reply to the customer, under 120 words, no signature>",
  "product_name": "<product the email is about, empty string if unknown>"
}`
}

func CombinedUser(in enrichment.Input) string {
	return ClassifyUser(in)
}

func categoryList() string {
	names := make([]string, len(entity.Categories))
	for i, c := range entity.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func sourceLabel(m entity.Marketplace) string {
	if m == entity.MarketplaceMailbox {
		return "support email"
	}
	return string(m) + " review"
}

func clip(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= maxPromptRunes {
		return string(r)
	}
	return string(r[:maxPromptRunes]) + "..."
}
