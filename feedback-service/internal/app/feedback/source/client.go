package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"feedbackhub/pkg/logger"
	"feedbackhub/pkg/metrics"
)

// errNotFound - 404 у провайдера; для breaker это успешный ответ
var errNotFound = errors.New("not found")

type ClientConfig struct {
	Name    string
	BaseURL string
	APIKey  string
	// KeyParam - имя query-параметра для ключа; пусто - ключ уходит в Authorization: Bearer
	KeyParam string
	RPS      float64
	Timeout  time.Duration
}

// ProviderClient - JSON GET к провайдеру с таймаутом, ограничением частоты и circuit breaker
type ProviderClient struct {
	cfg        ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

func NewProviderClient(cfg ClientConfig) *ProviderClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 401/404/429 - ответы провайдера, а не его недоступность
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrUpstream)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Provider circuit breaker state changed")
			metrics.ProviderBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	}

	return &ProviderClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		breaker:    gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

func (c *ProviderClient) Name() string {
	return c.cfg.Name
}

func (c *ProviderClient) Configured() bool {
	return c.cfg.APIKey != "" && c.cfg.BaseURL != ""
}

// GetJSON выполняет GET и декодирует тело в out.
// found=false при 404: идентификатор не найден у провайдера, это не ошибка.
func (c *ProviderClient) GetJSON(ctx context.Context, path string, query url.Values, out any) (bool, error) {
	if !c.Configured() {
		return false, fmt.Errorf("%s: %w", c.cfg.Name, ErrNotConfigured)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("%s: %w: %w", c.cfg.Name, ErrUpstream, err)
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, path, query)
	})
	metrics.RecordProviderRequest(c.cfg.Name, err)

	if err != nil {
		if errors.Is(err, errNotFound) {
			return false, nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return false, fmt.Errorf("%s: %w: %w", c.cfg.Name, ErrUpstream, err)
		}
		return false, err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("%s: %w: failed to decode response: %w", c.cfg.Name, ErrUpstream, err)
	}
	return true, nil
}

func (c *ProviderClient) do(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	if c.cfg.KeyParam != "" {
		query.Set(c.cfg.KeyParam, c.cfg.APIKey)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", c.cfg.Name, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.KeyParam == "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: failed to execute request: %w", c.cfg.Name, ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: failed to read response body: %w", c.cfg.Name, ErrUpstream, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, errNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%s: %w: status %d", c.cfg.Name, ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%s: %w", c.cfg.Name, ErrRateLimited)
	default:
		return nil, fmt.Errorf("%s: %w: API returned status %d: %s", c.cfg.Name, ErrUpstream, resp.StatusCode, truncate(string(body), 200))
	}
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
