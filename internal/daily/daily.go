// internal/daily/daily.go
//
// Daily board: every player gets the same shuffle on a given UTC date.
// The seed is HMAC-SHA256(salt, YYYY-MM-DD) so boards cannot be predicted
// without the server salt.

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/robalobadob/memorama/internal/game"
)

// Difficulty is the level every daily board is dealt at.
var Difficulty = game.Hard

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed derives the shuffle seed for t's date.
func Seed(t time.Time, salt string) uint64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(t)))
	sum := h.Sum(nil)
	// first 8 bytes are plenty for a PCG seed
	return binary.BigEndian.Uint64(sum[:8])
}

// RNG returns the source for t's board. The engine deals again on start and
// restart; the source rewinds after every deal so each one is the same board.
func RNG(t time.Time, salt string) game.RNG {
	return &rewindRNG{seed: Seed(t, salt), per: 2*Difficulty.Pairs - 1}
}

// rewindRNG reseeds itself every per draws (one Fisher–Yates pass).
type rewindRNG struct {
	seed uint64
	per  int
	n    int
	r    game.RNG
}

func (r *rewindRNG) Intn(n int) int {
	if r.n%r.per == 0 {
		r.r = game.SeededRNG(r.seed)
	}
	r.n++
	return r.r.Intn(n)
}
