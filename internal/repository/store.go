package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tweetflow/internal/domain"
	"tweetflow/pkg/circuitbreaker"
	"tweetflow/pkg/logger"
	"tweetflow/pkg/metrics"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Guard bounds every store call by a timeout and stops calling a failing store.
type Guard struct {
	timeout time.Duration
	breaker *circuitbreaker.CircuitBreaker
	logger  logger.Logger
}

func NewGuard(timeout time.Duration, log logger.Logger) *Guard {
	breaker := circuitbreaker.New(circuitbreaker.Settings{
		Name:        "store",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		IsFailure:   isTransient,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			log.Warn("Devre kesici durumu değişti", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})
	return &Guard{timeout: timeout, breaker: breaker, logger: log}
}

// Run executes fn with a deadline derived from ctx. Transient failures come
// back as domain transient errors.
func (g *Guard) Run(ctx context.Context, op, entity string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	err := g.breaker.Execute(func() error { return fn(ctx) })
	metrics.RecordStoreOperation(op, entity, err, time.Since(start))

	if errors.Is(err, circuitbreaker.ErrOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return domain.Transient(err)
	}
	if err != nil && isTransient(err) {
		g.logger.ErrorContext(ctx, "Veritabanı işlemi başarısız", map[string]interface{}{
			"operation": op,
			"entity":    entity,
			"error":     err.Error(),
		})
	}
	return classify(err)
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
