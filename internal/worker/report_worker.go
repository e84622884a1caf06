package worker

import (
	"context"

	"github.com/adim-imoveis/imovel-certo/internal/cache"
	"github.com/adim-imoveis/imovel-certo/internal/events"
)

// StartReportInvalidation drops cached reports whenever demands, missions or
// interactions change.
func StartReportInvalidation(dispatcher events.Dispatcher, reports *cache.ReportCache) {
	if dispatcher == nil || reports == nil {
		return
	}
	handler := func(ctx context.Context, _ events.Event) error {
		return reports.Invalidate(ctx)
	}
	for _, eventType := range events.AllEventTypes() {
		dispatcher.Subscribe(eventType, handler)
	}
}
