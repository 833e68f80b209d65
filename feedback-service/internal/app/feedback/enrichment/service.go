package enrichment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

const defaultTimeout = 30 * time.Second

// ErrClassification - модель не смогла классифицировать элемент
var ErrClassification = errors.New("classification failed")

// Input - то, что видит модель об одном элементе
type Input struct {
	Text        string
	Title       string
	Author      string
	Marketplace entity.Marketplace
	Rating      int
	// заполняются только при последовательном вызове черновика
	Sentiment entity.Sentiment
	Severity  entity.Severity
}

// Classifier - внешняя модель: классификация и черновик ответа
type Classifier interface {
	Classify(ctx context.Context, in Input) (*entity.Classification, error)
	DraftReply(ctx context.Context, in Input) (string, error)
}

// Combined - ответ объединенного вызова для почты
type Combined struct {
	Classification entity.Classification
	Reply          string
	ProductName    string
}

// CombinedClassifier - опциональная возможность: один вызов вместо двух
type CombinedClassifier interface {
	ClassifyAndDraft(ctx context.Context, in Input) (*Combined, error)
}

// Result - обогащенный элемент, категория всегда стандартная
type Result struct {
	Classification entity.Classification
	Reply          string
	ProductName    string
	Details        map[string]any
}

// Service обогащает элементы через модель с таймаутом на вызов
type Service struct {
	ai      Classifier
	timeout time.Duration
}

func NewService(ai Classifier, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{ai: ai, timeout: timeout}
}

// Enrich выполняет классификацию и черновик параллельно.
// Ошибка классификации проваливает элемент. Ошибка черновика оставляет
// классификацию, пустой ответ и reply_error в деталях
func (s *Service) Enrich(ctx context.Context, in Input) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	metrics.EnrichmentInFlight.Inc()
	defer metrics.EnrichmentInFlight.Dec()

	var (
		g        errgroup.Group
		cls      *entity.Classification
		reply    string
		replyErr error
	)

	g.Go(func() error {
		timer := metrics.NewAITimer("classify")
		c, err := s.ai.Classify(ctx, in)
		timer.Done(err)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrClassification, err)
		}
		cls = c
		return nil
	})

	g.Go(func() error {
		timer := metrics.NewAITimer("draft")
		reply, replyErr = s.ai.DraftReply(ctx, in)
		timer.Done(replyErr)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if cls == nil {
		return nil, fmt.Errorf("%w: empty classification", ErrClassification)
	}

	result := &Result{
		Classification: normalize(*cls),
		Reply:          reply,
		Details:        details(*cls),
	}
	if replyErr != nil {
		result.Reply = ""
		result.Details["reply_error"] = replyErr.Error()
	}

	return result, nil
}

// EnrichEmail использует объединенный вызов, если модель его поддерживает,
// иначе обычный путь Enrich
func (s *Service) EnrichEmail(ctx context.Context, in Input) (*Result, error) {
	combined, ok := s.ai.(CombinedClassifier)
	if !ok {
		return s.Enrich(ctx, in)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	metrics.EnrichmentInFlight.Inc()
	defer metrics.EnrichmentInFlight.Dec()

	timer := metrics.NewAITimer("classify_and_draft")
	out, err := combined.ClassifyAndDraft(ctx, in)
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassification, err)
	}

	result := &Result{
		Classification: normalize(out.Classification),
		Reply:          out.Reply,
		ProductName:    out.ProductName,
		Details:        details(out.Classification),
	}
	result.Details["combined"] = true
	if out.ProductName != "" {
		result.Details["product_name"] = out.ProductName
	}

	return result, nil
}

func normalize(c entity.Classification) entity.Classification {
	return entity.Classification{
		Sentiment: NormalizeSentiment(string(c.Sentiment)),
		Category:  NormalizeCategory(string(c.Category)),
		Severity:  NormalizeSeverity(string(c.Severity)),
		Reasoning: c.Reasoning,
	}
}

func details(raw entity.Classification) map[string]any {
	d := map[string]any{"reasoning": raw.Reasoning}
	if normalized := NormalizeCategory(string(raw.Category)); string(normalized) != string(raw.Category) {
		d["model_category"] = string(raw.Category)
	}
	return d
}
