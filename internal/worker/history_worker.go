package worker

import (
	"github.com/spec-kit/helpdesk/internal/service"
)

// StartHistoryWorker registers the audit trail and activity log handlers.
func StartHistoryWorker(historyService *service.HistoryService) {
	if historyService == nil {
		return
	}
	historyService.RegisterHandlers()
}
