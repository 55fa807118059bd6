package redis

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/bankledger/internal/infrastructure/metrics"
)

func TestIdempotencyStore_CheckAndSetExisting(t *testing.T) {
	store, client, _ := newTestStore(t, nil)
	ctx := context.Background()

	if err := client.Set(ctx, store.prefix+"key", "cached", time.Minute).Err(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	exists, resp, err := store.CheckAndSet(ctx, "key", nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}

	if !exists || string(resp) != "cached" {
		t.Fatalf("expected existing cached response, got exists=%v resp=%s", exists, resp)
	}
}

func TestIdempotencyStore_CheckAndSetLocksNewKey(t *testing.T) {
	store, client, _ := newTestStore(t, nil)
	ctx := context.Background()

	exists, resp, err := store.CheckAndSet(ctx, "pending", nil, time.Minute)
	if err != nil || exists || resp != nil {
		t.Fatalf("unexpected result: exists=%v resp=%v err=%v", exists, resp, err)
	}

	val, err := client.Get(ctx, store.prefix+"pending").Result()
	if err != nil || val != processingMarker {
		t.Fatalf("expected placeholder lock, got val=%s err=%v", val, err)
	}

	exists, resp, err = store.CheckAndSet(ctx, "pending", nil, time.Minute)
	if err != nil || !exists || string(resp) != processingMarker {
		t.Fatalf("expected second claim to see the marker, got exists=%v resp=%s err=%v", exists, resp, err)
	}
}

func TestIdempotencyStore_CheckAndSetWithResponse(t *testing.T) {
	store, client, _ := newTestStore(t, nil)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "direct", []byte("body"), time.Minute); err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}

	val, err := client.Get(ctx, store.prefix+"direct").Result()
	if err != nil || val != "body" {
		t.Fatalf("expected response to be stored, got val=%s err=%v", val, err)
	}
}

func TestIdempotencyStore_KeyExpires(t *testing.T) {
	store, _, mr := newTestStore(t, nil)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "ttl", nil, time.Minute); err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	exists, _, err := store.CheckAndSet(ctx, "ttl", nil, time.Minute)
	if err != nil || exists {
		t.Fatalf("expected expired key to be claimable, got exists=%v err=%v", exists, err)
	}
}

func TestIdempotencyStore_Update(t *testing.T) {
	store, client, _ := newTestStore(t, nil)
	ctx := context.Background()

	if err := store.Update(ctx, "complete", []byte("done"), time.Minute); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	val, err := client.Get(ctx, store.prefix+"complete").Result()
	if err != nil || val != "done" {
		t.Fatalf("expected stored response, got val=%s err=%v", val, err)
	}
}

func TestIdempotencyStore_Release(t *testing.T) {
	store, _, mr := newTestStore(t, nil)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "retry", nil, time.Minute); err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if err := store.Release(ctx, "retry"); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	if mr.Exists(store.prefix + "retry") {
		t.Fatalf("expected key to be deleted")
	}
}

func TestIdempotencyStore_RecordsMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	store, _, mr := newTestStore(t, m)
	ctx := context.Background()

	if err := store.Update(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got := testutil.ToFloat64(m.RedisOperations.WithLabelValues("set")); got != 1 {
		t.Fatalf("expected one set operation, got %v", got)
	}

	mr.Close()

	if err := store.Update(ctx, "k", []byte("v"), time.Minute); err == nil {
		t.Fatalf("expected error with redis down")
	}
	if got := testutil.ToFloat64(m.RedisErrors.WithLabelValues("set")); got != 1 {
		t.Fatalf("expected one set error, got %v", got)
	}
}
