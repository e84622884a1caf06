package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/adim-imoveis/imovel-certo/internal/cache"
	"github.com/adim-imoveis/imovel-certo/internal/config"
	"github.com/adim-imoveis/imovel-certo/internal/events"
	"github.com/adim-imoveis/imovel-certo/internal/service"
)

type counter struct {
	Total int `json:"total"`
}

func TestReportInvalidationOnEvents(t *testing.T) {
	ctx := context.Background()
	dispatcher := events.NewInMemoryDispatcher(nil)
	reports := cache.NewReportCache(cache.NewMemoryStore(), time.Minute, nil)
	StartReportInvalidation(dispatcher, reports)

	loads := 0
	load := func(context.Context) (any, error) {
		loads++
		return counter{Total: loads}, nil
	}

	var out counter
	require.NoError(t, reports.Fetch(ctx, "dashboard", "all", &out, load))
	require.NoError(t, reports.Fetch(ctx, "dashboard", "all", &out, load))
	assert.Equal(t, 1, out.Total)

	require.NoError(t, dispatcher.Publish(ctx, events.New(events.EventMissionStatusChanged, events.Actor{}, nil)))
	require.NoError(t, reports.Fetch(ctx, "dashboard", "all", &out, load))
	assert.Equal(t, 2, out.Total)
	assert.Equal(t, 2, loads)
}

func TestStartReportInvalidationToleratesNil(t *testing.T) {
	assert.NotPanics(t, func() {
		StartReportInvalidation(nil, nil)
		StartNotificationWorker(nil)
	})
}

func TestNotificationWorkerLogsEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher(nil)
	notifications := service.NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{EmailFrom: "noreply@example.com"})
	StartNotificationWorker(notifications)

	event := events.New(events.EventDemandOrphaned, events.Actor{UserID: "u-1"}, events.DemandOrphanedPayload{Code: "DEM-1", TargetRegion: "itajai"})
	event.DemandID = "d-1"
	require.NoError(t, dispatcher.Publish(context.Background(), event))

	assert.Equal(t, 1, logs.FilterMessage("DemandOrphaned").Len())
	assert.Equal(t, 1, logs.FilterMessage("sendEmailNotificationStub").Len())
	assert.Zero(t, logs.FilterMessage("sendWebhookNotificationStub").Len())
	assert.Equal(t, 2, logs.FilterField(zap.String("demand_id", "d-1")).Len())
}
