package redis

import (
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"

	"github.com/iho/bankledger/internal/infrastructure/metrics"
)

// newTestStore starts a miniredis server and returns a store on top of it.
// The client and server are closed when the test ends.
func newTestStore(t *testing.T, m *metrics.Metrics) (*IdempotencyStore, *redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewIdempotencyStore(client, m), client, mr
}
