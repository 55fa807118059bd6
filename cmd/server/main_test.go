package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bankledger/internal/adapter/http/middleware"
	"github.com/iho/bankledger/internal/infrastructure/clock"
	"github.com/iho/bankledger/internal/infrastructure/config"
)

func testConfig() *config.Config {
	return &config.Config{
		HTTPPort:            "0",
		HTTPShutdownTimeout: time.Second,
		IdempotencyTTL:      time.Minute,
		RateLimitRPS:        1000,
		RateLimitBurst:      1000,
		InterestRate:        decimal.RequireFromString("0.20"),
		InterestInterval:    24 * time.Hour,
		PaymentInterval:     time.Hour,
		ScheduleTimezone:    "UTC",
		Location:            time.UTC,
	}
}

func newTestApp(t *testing.T, cfg *config.Config, clk *clock.Fake) *app {
	t.Helper()

	reg := prometheus.NewRegistry()
	a, err := newApp(context.Background(), cfg, appDeps{
		Logger:         zerolog.Nop(),
		Registerer:     reg,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Clock:          clk,
	})
	require.NoError(t, err)
	t.Cleanup(a.Close)

	return a
}

func serve(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func openAccount(t *testing.T, h http.Handler, body string) string {
	t.Helper()

	rec := serve(t, h, http.MethodPost, "/api/v1/accounts", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func balanceOf(t *testing.T, h http.Handler, id string) string {
	t.Helper()

	rec := serve(t, h, http.MethodGet, "/api/v1/accounts/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Balance string `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Balance
}

func TestNewApp_WithoutRedis(t *testing.T) {
	a := newTestApp(t, testConfig(), clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	rec := serve(t, a.Handler, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"disabled"`)

	id := openAccount(t, a.Handler, `{"initial_balance":"50"}`)
	assert.Equal(t, "50.00", balanceOf(t, a.Handler, id))

	rec = serve(t, a.Handler, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bankledger_accounts_opened_total")
}

func TestNewApp_WithRedisReplaysDeposits(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr()
	a := newTestApp(t, cfg, clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	rec := serve(t, a.Handler, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"ok"`)

	id := openAccount(t, a.Handler, `{}`)
	for i := 0; i < 2; i++ {
		rec := serve(t, a.Handler, http.MethodPost, "/api/v1/accounts/"+id+"/deposit", `{"amount":"10"}`,
			middleware.IdempotencyKeyHeader, "deposit-1")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	assert.Equal(t, "10.00", balanceOf(t, a.Handler, id))
}

func TestNewApp_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig()
	cfg.RedisURL = "redis://" + addr

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := newApp(ctx, cfg, appDeps{
		Logger:     zerolog.Nop(),
		Registerer: prometheus.NewRegistry(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestStartBackground_CreditsInterestAndStops(t *testing.T) {
	clk := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	a := newTestApp(t, testConfig(), clk)

	savings := openAccount(t, a.Handler, `{"category":"savings","initial_balance":"1000"}`)
	checking := openAccount(t, a.Handler, `{"initial_balance":"1000"}`)

	ctx, cancel := context.WithCancel(context.Background())
	wg := a.StartBackground(ctx)

	require.Eventually(t, func() bool {
		return balanceOf(t, a.Handler, savings) == "1200.00"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "1000.00", balanceOf(t, a.Handler, checking))

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("background jobs did not stop")
	}
}

func TestCleanupLimiters_StopsOnCancel(t *testing.T) {
	clk := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	limiter := middleware.NewRateLimiter(1, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cleanupLimiters(ctx, limiter, clk, zerolog.Nop())
		close(done)
	}()

	require.True(t, clk.BlockUntil(1, time.Second))
	clk.Advance(limiterCleanupInterval)
	require.True(t, clk.BlockUntil(1, time.Second))

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("cleanup loop did not stop")
	}
}
