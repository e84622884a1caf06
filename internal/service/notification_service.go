package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/adim-imoveis/imovel-certo/internal/config"
	"github.com/adim-imoveis/imovel-certo/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     nopLogger(logger),
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventDemandCreated, n.handleDemandCreated)
	n.dispatcher.Subscribe(events.EventDemandOrphaned, n.handleDemandOrphaned)
	n.dispatcher.Subscribe(events.EventMissionAssigned, n.handleMissionAssigned)
	n.dispatcher.Subscribe(events.EventMissionStatusChanged, n.handleMissionStatusChanged)
	n.dispatcher.Subscribe(events.EventInteractionAdded, n.handleInteractionAdded)
}

func (n *NotificationService) handleDemandCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("DemandCreated", zap.String("demand_id", event.DemandID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

// Orphaned demands need a manager to act, so they go out by email as well.
func (n *NotificationService) handleDemandOrphaned(ctx context.Context, event events.Event) error {
	n.logger.Info("DemandOrphaned", zap.String("demand_id", event.DemandID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleMissionAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("MissionAssigned",
		zap.String("mission_id", event.MissionID),
		zap.String("demand_id", event.DemandID),
		zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleMissionStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("MissionStatusChanged", zap.String("mission_id", event.MissionID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleInteractionAdded(ctx context.Context, event events.Event) error {
	n.logger.Info("InteractionAdded", zap.String("mission_id", event.MissionID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("demand_id", event.DemandID),
		zap.String("mission_id", event.MissionID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("demand_id", event.DemandID),
		zap.String("mission_id", event.MissionID),
		zap.String("event_type", string(event.Type)))
}
