package store

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RunJanitor expires sessions idle for longer than ttl, checking every
// interval, until ctx is done.
func RunJanitor(ctx context.Context, st Store, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := st.Expire(ctx, now.Add(-ttl)); n > 0 {
				log.Info().Int("expired", n).Int("live", st.Len()).Msg("expired idle sessions")
			}
		}
	}
}
