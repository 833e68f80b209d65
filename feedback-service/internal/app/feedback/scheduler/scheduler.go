package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"feedbackhub/pkg/logger"
)

// DefaultBound - сколько операций одновременно в полете
const DefaultBound = 5

// ErrDuplicate возвращается операцией, если элемент уже сохранен.
// Считается пропуском, но не ошибкой.
var ErrDuplicate = errors.New("duplicate item")

type Stage string

const (
	StageEnrich  Stage = "enrich"
	StagePersist Stage = "persist"
)

// ItemError - сбой одного элемента с контекстом для диагностики
type ItemError struct {
	Stage      Stage
	ExternalID string
	Err        error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.ExternalID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

type Options struct {
	Bound  int
	Source string
}

type Result struct {
	Imported int
	Skipped  int
	Failed   int
}

// Op обрабатывает один элемент (обогащение + сохранение)
type Op[T any] func(ctx context.Context, item T) error

// Run прогоняет элементы последовательными чанками по Bound штук.
// Внутри чанка операции параллельны, следующий чанк стартует только
// после завершения всех операций текущего. Ошибка элемента не отменяет соседей.
func Run[T any](ctx context.Context, opts Options, items []T, key func(T) string, op Op[T]) Result {
	bound := opts.Bound
	if bound <= 0 {
		bound = DefaultBound
	}

	var imported, skipped, failed atomic.Int64

	for start := 0; start < len(items); start += bound {
		end := min(start+bound, len(items))

		// контекст errgroup не используется: ошибки не отменяют чанк
		var g errgroup.Group
		for _, item := range items[start:end] {
			g.Go(func() error {
				err := op(ctx, item)
				switch {
				case err == nil:
					imported.Add(1)
				case errors.Is(err, ErrDuplicate):
					skipped.Add(1)
				default:
					failed.Add(1)
					logItemError(opts.Source, key(item), err)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	return Result{
		Imported: int(imported.Load()),
		Skipped:  int(skipped.Load()),
		Failed:   int(failed.Load()),
	}
}

func logItemError(source, externalID string, err error) {
	stage := "unknown"
	var itemErr *ItemError
	if errors.As(err, &itemErr) {
		stage = string(itemErr.Stage)
	}

	logger.Warn().
		Err(err).
		Str("source", source).
		Str("external_id", externalID).
		Str("stage", stage).
		Msg("Item failed, skipping")
}
