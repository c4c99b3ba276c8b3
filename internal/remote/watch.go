package remote

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// watch runs a feed listener that re-loads the partition on every signal.
// The returned Unsubscribe cancels the listener without waiting for it, so it may be
// called from inside onChange.
func watch[T any](
	feed Feed,
	kind, profileID string,
	load func(ctx context.Context) (T, error),
	onChange func(T),
	onError func(error),
	logger *zap.Logger,
) Unsubscribe {
	ctx, cancel := context.WithCancel(context.Background())

	// serializes loads so pushes reach the caller in feed order
	var mu sync.Mutex
	push := func() {
		mu.Lock()
		defer mu.Unlock()
		v, err := load(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			onError(err)
			return
		}
		onChange(v)
	}
	reportErr := func(err error) {
		if ctx.Err() == nil {
			onError(err)
		}
	}

	go func() {
		if err := feed.Listen(ctx, kind, profileID, push, push, reportErr); err != nil {
			logger.Warn("Feed listener stopped",
				zap.String("kind", kind),
				zap.String("profile_id", profileID),
				zap.Error(err),
			)
			reportErr(err)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
	}
}
