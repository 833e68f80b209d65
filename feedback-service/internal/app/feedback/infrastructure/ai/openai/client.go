package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"feedbackhub/feedback-service/internal/app/feedback/enrichment"
	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/feedback-service/internal/app/feedback/infrastructure/ai/prompt"
)

const (
	defaultModel = "gpt-4o-mini"
	maxTokens    = 700
)

var (
	// ErrQuotaExceeded - модель ответила 429 (квота или частота)
	ErrQuotaExceeded = errors.New("ai quota exceeded")
	// ErrUnauthorized - ключ модели отклонен (401/403)
	ErrUnauthorized  = errors.New("ai credentials rejected")
	// ErrEmptyResponse - в ответе нет ни одного варианта
	ErrEmptyResponse = errors.New("ai returned empty response")
)

// Client реализует enrichment.Classifier и enrichment.CombinedClassifier
type Client struct {
	*openai.Client
	Model string
}

var (
	_ enrichment.Classifier         = (*Client)(nil)
	_ enrichment.CombinedClassifier = (*Client)(nil)
)

// NewClient создает клиента; baseURL нужен для совместимых шлюзов и тестов
func NewClient(apiKey, baseURL, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

type classificationPayload struct {
	Sentiment string `json:"sentiment"`
	Category  string `json:"category"`
	Severity  string `json:"severity"`
	Reasoning string `json:"reasoning"`
}

func (p classificationPayload) toEntity() *entity.Classification {
	// метки сырые, нормализует enrichment
	return &entity.Classification{
		Sentiment: entity.Sentiment(p.Sentiment),
		Category:  entity.Category(p.Category),
		Severity:  entity.Severity(p.Severity),
		Reasoning: p.Reasoning,
	}
}

type combinedPayload struct {
	classificationPayload
	Reply       string `json:"reply"`
	ProductName string `json:"product_name"`
}

func (c *Client) Classify(ctx context.Context, in enrichment.Input) (*entity.Classification, error) {
	content, err := c.complete(ctx, prompt.ClassifySystem(), prompt.ClassifyUser(in), true)
	if err != nil {
		return nil, err
	}

	var payload classificationPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode classification: %w", err)
	}
	return payload.toEntity(), nil
}

func (c *Client) DraftReply(ctx context.Context, in enrichment.Input) (string, error) {
	content, err := c.complete(ctx, prompt.DraftSystem(), prompt.DraftUser(in), false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func (c *Client) ClassifyAndDraft(ctx context.Context, in enrichment.Input) (*enrichment.Combined, error) {
	content, err := c.complete(ctx, prompt.CombinedSystem(), prompt.CombinedUser(in), true)
	if err != nil {
		return nil, err
	}

	var payload combinedPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode combined response: %w", err)
	}

	return &enrichment.Combined{
		Classification: *payload.toEntity(),
		Reply:          strings.TrimSpace(payload.Reply),
		ProductName:    strings.TrimSpace(payload.ProductName),
	}, nil
}

func (c *Client) complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	// reasoning-модели принимают только MaxCompletionTokens
	if isReasoningModel(c.Model) {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		switch statusCode(err) {
		case http.StatusTooManyRequests:
			return "", fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return "", fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func isReasoningModel(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}
