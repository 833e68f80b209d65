package source

import (
	"context"
	"fmt"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/pkg/logger"
	"feedbackhub/pkg/metrics"
)

// FallbackRouter - пара основной/резервный провайдер одной площадки.
//
// Правила:
//   - провайдер без ключа пропускается без вызова;
//   - пустой успешный ответ основного провайдера окончательный, резерв не вызывается;
//   - резерв вызывается только при ошибке основного (или если основной не настроен);
//   - упали оба - *FallbackError с ошибкой основного.
type FallbackRouter struct {
	Name      string
	Primary   Adapter
	Secondary Adapter
	// Timeout на каждый вызов провайдера, 0 - без ограничения
	Timeout time.Duration
}

// Single оборачивает один адаптер в роутер без резерва
func Single(adapter Adapter, timeout time.Duration) *FallbackRouter {
	return &FallbackRouter{Name: adapter.Name(), Primary: adapter, Timeout: timeout}
}

func (r *FallbackRouter) Fetch(ctx context.Context, identifier string, opts entity.FetchOptions) (*entity.FetchResult, string, error) {
	var primaryErr error

	if usable(r.Primary) {
		result, err := r.call(ctx, r.Primary, identifier, opts)
		if err == nil {
			r.served(r.Primary, identifier, result)
			return result, r.Primary.Name(), nil
		}
		primaryErr = err

		if usable(r.Secondary) {
			logger.Warn().
				Err(err).
				Str("router", r.Name).
				Str("provider", r.Primary.Name()).
				Str("fallback", r.Secondary.Name()).
				Str("identifier", identifier).
				Msg("Primary provider failed, falling back")
		}
	} else if r.Primary != nil {
		logger.Debug().
			Str("router", r.Name).
			Str("provider", r.Primary.Name()).
			Msg("Primary provider not configured, skipping")
	}

	if !usable(r.Secondary) {
		if primaryErr != nil {
			return nil, "", fmt.Errorf("%s: %w", r.Name, primaryErr)
		}
		return nil, "", fmt.Errorf("%s: %w", r.Name, ErrNotConfigured)
	}

	result, err := r.call(ctx, r.Secondary, identifier, opts)
	if err == nil {
		r.served(r.Secondary, identifier, result)
		return result, r.Secondary.Name(), nil
	}

	if primaryErr == nil {
		// основной не настроен, fallback по сути не выполнялся
		return nil, "", fmt.Errorf("%s: %w", r.Name, err)
	}

	logger.Error().
		Str("router", r.Name).
		AnErr("primary_error", primaryErr).
		AnErr("secondary_error", err).
		Str("identifier", identifier).
		Msg("All providers failed")

	return nil, "", &FallbackError{Router: r.Name, Primary: primaryErr, Secondary: err}
}

func (r *FallbackRouter) call(ctx context.Context, a Adapter, identifier string, opts entity.FetchOptions) (*entity.FetchResult, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	result, err := a.Fetch(ctx, identifier, opts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w: %w", a.Name(), ErrUpstream, ctx.Err())
		}
		return nil, err
	}
	if result == nil {
		result = &entity.FetchResult{}
	}
	return result, nil
}

func (r *FallbackRouter) served(a Adapter, identifier string, result *entity.FetchResult) {
	metrics.RecordFallback(r.Name, a.Name())
	logger.Info().
		Str("router", r.Name).
		Str("provider", a.Name()).
		Str("identifier", identifier).
		Int("items", len(result.Items)).
		Msg("Provider served request")
}

func usable(a Adapter) bool {
	return a != nil && a.Configured()
}
