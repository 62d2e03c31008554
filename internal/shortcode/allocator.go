// Package shortcode allocates unique short codes. Generation rotates between
// independent strategies and the store's unique index is the final authority
// on collisions.
package shortcode

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"regexp"
	"sync/atomic"
	"time"

	"github.com/hoplink/hoplink/internal/apperr"
	"github.com/hoplink/hoplink/internal/metrics"
	"github.com/hoplink/hoplink/internal/model"
	"github.com/hoplink/hoplink/internal/repository"
)

// customAliasPattern constrains caller-chosen aliases.
var customAliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)

// Store is the persistence surface the allocator needs.
type Store interface {
	Insert(ctx context.Context, link *model.Link) error
	Exists(ctx context.Context, shortCode string) (bool, error)
}

// Params tune the allocation loop.
type Params struct {
	InitialLength   int
	MaxRetries      int
	BaseRetryDelay  time.Duration
	MaxRetryDelay   time.Duration
	LengthGrowEvery int
}

// DefaultParams returns the production allocation parameters.
func DefaultParams() Params {
	return Params{
		InitialLength:   6,
		MaxRetries:      10,
		BaseRetryDelay:  10 * time.Millisecond,
		MaxRetryDelay:   500 * time.Millisecond,
		LengthGrowEvery: 3,
	}
}

// Allocator generates short codes and persists links under them.
type Allocator struct {
	store   Store
	params  Params
	metrics metrics.Recorder
	logger  *slog.Logger

	collisionCount atomic.Int64
}

// New creates an Allocator. Zero-valued params fall back to defaults.
func New(store Store, params Params, rec metrics.Recorder, logger *slog.Logger) *Allocator {
	defaults := DefaultParams()
	if params.InitialLength <= 0 {
		params.InitialLength = defaults.InitialLength
	}
	if params.MaxRetries <= 0 {
		params.MaxRetries = defaults.MaxRetries
	}
	if params.BaseRetryDelay <= 0 {
		params.BaseRetryDelay = defaults.BaseRetryDelay
	}
	if params.MaxRetryDelay <= 0 {
		params.MaxRetryDelay = defaults.MaxRetryDelay
	}
	if params.LengthGrowEvery <= 0 {
		params.LengthGrowEvery = defaults.LengthGrowEvery
	}

	return &Allocator{
		store:   store,
		params:  params,
		metrics: rec,
		logger:  logger.With("component", "shortcode"),
	}
}

// CollisionCount returns the number of collisions observed since start.
func (a *Allocator) CollisionCount() int64 {
	return a.collisionCount.Load()
}

// Allocate generates a code, assigns it to the link, and persists the link.
// On collision it backs off with jitter and retries with a different
// strategy; the code length grows as attempts accumulate. The loop gives up
// after MaxRetries attempts.
func (a *Allocator) Allocate(ctx context.Context, link *model.Link) error {
	for attempt := 0; attempt < a.params.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return apperr.ErrRequestTimeout.Wrap(err)
		}

		length := a.params.InitialLength + attempt/a.params.LengthGrowEvery

		code, err := a.generate(attempt, length)
		if err != nil {
			return apperr.ErrInternal.Wrap(err).WithContext("operation", "generate short code")
		}

		taken, err := a.store.Exists(ctx, code)
		if err != nil {
			return err
		}
		if !taken {
			link.ShortCode = code
			err = a.store.Insert(ctx, link)
			if err == nil {
				return nil
			}
			if !errors.Is(err, repository.ErrCodeTaken) {
				return err
			}
			// Lost the race between Exists and Insert; fall through to retry.
		}

		a.collisionCount.Add(1)
		a.metrics.IncShortCodeCollision()
		a.logger.Debug("short code collision",
			"code", code,
			"attempt", attempt,
			"length", length,
		)

		if attempt < a.params.MaxRetries-1 {
			select {
			case <-time.After(a.backoff(attempt)):
			case <-ctx.Done():
				return apperr.ErrRequestTimeout.Wrap(ctx.Err())
			}
		}
	}

	return apperr.ErrInvalidInput.
		WithMessage("unable to allocate a unique short code").
		WithContext("attempts", a.params.MaxRetries)
}

// AllocateCustom persists the link under a caller-chosen alias.
func (a *Allocator) AllocateCustom(ctx context.Context, link *model.Link, alias string) error {
	if !customAliasPattern.MatchString(alias) {
		return apperr.ErrInvalidFormat.
			WithMessage("custom alias must be 3-20 characters of letters, digits, underscore or hyphen").
			WithContext("alias", alias)
	}

	link.ShortCode = alias
	link.CustomAlias = alias

	if err := a.store.Insert(ctx, link); err != nil {
		if errors.Is(err, repository.ErrCodeTaken) {
			return apperr.ErrCustomAliasTaken.WithContext("alias", alias)
		}
		return err
	}

	return nil
}

// generate picks the strategy for an attempt. Strategies rotate so a
// pathological collision run with one generator cannot stall the loop.
func (a *Allocator) generate(attempt, length int) (string, error) {
	switch attempt % 4 {
	case 1:
		return hashCode(length), nil
	case 2:
		return timestampCode(length)
	default:
		return secureRandomCode(length)
	}
}

// backoff returns an exponential delay with up to 50% additive jitter,
// capped at MaxRetryDelay.
func (a *Allocator) backoff(attempt int) time.Duration {
	delay := a.params.BaseRetryDelay * (1 << attempt)
	delay += time.Duration(rand.Int63n(int64(delay)/2 + 1))
	if delay > a.params.MaxRetryDelay {
		delay = a.params.MaxRetryDelay
	}
	return delay
}
