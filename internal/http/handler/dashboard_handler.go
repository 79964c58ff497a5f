package handler

import (
	"net/http"

	"github.com/miniforvaltaren/api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// @Summary Get dashboard
// @Description Counts and lists for the landlord overview, all computed against one captured time.
// @Description
// @Description **Counts:** properties, units, tenants, active leases, open tickets (OPEN + IN_PROGRESS),
// @Description overdue invoices, invoices due this month (PENDING) and paid this month.
// @Description
// @Description **Month window:** first local midnight of the month to the last millisecond of the month, Europe/Stockholm.
// @Description
// @Description **Lists:** the 6 next PENDING invoices by due date and the 6 latest payments.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.DashboardDTO
// @Security BearerAuth
// @Router /dashboard [get]
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.dashboardService.Get(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "get dashboard")
		return
	}
	respondJSON(w, http.StatusOK, dashboard)
}
