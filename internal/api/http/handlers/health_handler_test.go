package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adim-imoveis/imovel-certo/internal/observability"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		postgres   Pinger
		redis      Pinger
		wantStatus int
	}{
		{name: "all_up", postgres: stubPinger{}, redis: stubPinger{}, wantStatus: http.StatusOK},
		{name: "redis_down", postgres: stubPinger{}, redis: stubPinger{err: errors.New("refused")}, wantStatus: http.StatusServiceUnavailable},
		{name: "postgres_missing", postgres: nil, redis: stubPinger{}, wantStatus: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler("imovel-certo", "test", tt.postgres, tt.redis, nil)
			app := fiber.New()
			app.Get("/ready", h.Ready)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ready", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestHealthMetrics(t *testing.T) {
	metrics := observability.NewMetrics()
	metrics.Inc("demands_created")
	metrics.RecordRequest("/api/demands", http.MethodPost, http.StatusCreated, 5*time.Millisecond)

	h := NewHealthHandler("imovel-certo", "test", stubPinger{}, stubPinger{}, metrics)
	app := fiber.New()
	app.Get("/metrics", h.Metrics)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"demands_created":1`)
	assert.Contains(t, string(raw), `"/api/demands|POST|201":1`)
}

func TestParsePage(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		page := parsePage(c)
		return c.JSON(fiber.Map{"limit": page.Limit, "offset": page.Offset})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/?page=3&page_size=10", nil))
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"limit":10,"offset":20}`, string(raw))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/?page=-1&page_size=abc", nil))
	require.NoError(t, err)
	raw, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"limit":50,"offset":0}`, string(raw))
}

func TestParseTime(t *testing.T) {
	assert.Nil(t, parseTime(""))
	assert.Nil(t, parseTime("yesterday"))
	got := parseTime("2025-03-01")
	require.NotNil(t, got)
	assert.Equal(t, 2025, got.Year())
	got = parseTime("2025-03-01T10:00:00Z")
	require.NotNil(t, got)
	assert.Equal(t, 10, got.Hour())
}
