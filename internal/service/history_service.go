package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// HistoryService turns ticket events into audit trail rows and an activity log.
type HistoryService struct {
	dispatcher events.Dispatcher
	history    repository.TicketHistoryRepository
	logger     *zap.Logger
}

// NewHistoryService creates the service.
func NewHistoryService(dispatcher events.Dispatcher, history repository.TicketHistoryRepository, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{
		dispatcher: dispatcher,
		history:    history,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (h *HistoryService) RegisterHandlers() {
	if h.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		h.dispatcher.Subscribe(eventType, h.logActivity)
	}
	h.dispatcher.Subscribe(events.EventTicketStatusChanged, h.handleStatusChanged)
	h.dispatcher.Subscribe(events.EventTicketPriorityChanged, h.handlePriorityChanged)
	h.dispatcher.Subscribe(events.EventTicketAssigned, h.handleAssigned)
}

func (h *HistoryService) logActivity(_ context.Context, event events.Event) error {
	h.logger.Info("ticket activity",
		zap.String("event", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor", event.Actor.ProfileID),
		zap.Any("payload", event.Payload))
	return nil
}

func (h *HistoryService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok || payload.OldStatus == payload.NewStatus {
		return nil
	}
	return h.record(ctx, event, domain.ChangeTypeStatus,
		map[string]any{"status": string(payload.OldStatus)},
		map[string]any{"status": string(payload.NewStatus)})
}

func (h *HistoryService) handlePriorityChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketPriorityChangedPayload)
	if !ok || payload.OldPriority == payload.NewPriority {
		return nil
	}
	return h.record(ctx, event, domain.ChangeTypePriority,
		map[string]any{"priority": string(payload.OldPriority)},
		map[string]any{"priority": string(payload.NewPriority)})
}

func (h *HistoryService) handleAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return nil
	}
	return h.record(ctx, event, domain.ChangeTypeAssignee,
		map[string]any{"assigned_to": payload.OldAssignee},
		map[string]any{"assigned_to": payload.NewAssignee})
}

func (h *HistoryService) record(ctx context.Context, event events.Event, changeType domain.TicketChangeType, oldValue, newValue map[string]any) error {
	if h.history == nil {
		return nil
	}
	var changedBy *string
	if event.Actor.ProfileID != "" {
		id := event.Actor.ProfileID
		changedBy = &id
	}
	return h.history.Create(ctx, &domain.TicketHistory{
		TicketID:   event.TicketID,
		ChangedBy:  changedBy,
		ChangeType: changeType,
		OldValue:   oldValue,
		NewValue:   newValue,
	})
}
