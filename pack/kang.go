package pack

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sony/gobreaker/v2"

	"github.com/prilive-com/stickerforge/internal/resilience"
	"github.com/prilive-com/stickerforge/sticker"
)

// Fetcher supplies the encoded bytes behind a sticker reference. The
// transport layer implements it against the platform's file API.
type Fetcher interface {
	Fetch(ctx context.Context, ref sticker.Ref) ([]byte, error)
}

// ReEncoder turns fetched bytes into a compliant candidate of the
// target format. *convert.Orchestrator satisfies this.
type ReEncoder interface {
	ReEncode(ctx context.Context, data []byte, target sticker.Format) (*sticker.Candidate, error)
}

// kanger wraps the fetcher in a circuit breaker and a short retry so a
// flapping platform file API fails fast instead of holding pack locks.
type kanger struct {
	fetcher   Fetcher
	reencoder ReEncoder
	breaker   *gobreaker.CircuitBreaker[[]byte]
	retry     resilience.RetryConfig
	logger    *slog.Logger
}

func newKanger(f Fetcher, r ReEncoder, logger *slog.Logger) *kanger {
	return &kanger{
		fetcher:   f,
		reencoder: r,
		breaker:   resilience.NewBreaker[[]byte](resilience.DefaultBreakerConfig("kang-fetch")),
		retry:     resilience.DefaultRetryConfig(),
		logger:    logger,
	}
}

// fetch pulls the source bytes and re-encodes them to target.
func (k *kanger) fetch(ctx context.Context, ref sticker.Ref, target sticker.Format) (*sticker.Candidate, error) {
	data, err := resilience.Retry(ctx, k.retry, func() ([]byte, error) {
		return k.breaker.Execute(func() ([]byte, error) {
			return k.fetcher.Fetch(ctx, ref)
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			k.logger.Warn("kang fetch rejected, breaker open", "file_id", ref.FileID)
		}
		return nil, sticker.WrapError(err, "fetching sticker %s", ref.FileID)
	}

	k.logger.Debug("kang source fetched",
		"file_id", ref.FileID,
		"bytes", len(data),
		"target", target)

	return k.reencoder.ReEncode(ctx, data, target)
}
