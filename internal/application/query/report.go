package query

import (
	"context"

	"github.com/ipms/placement-hub/internal/domain/report"
	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GENERATE REPORT QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GenerateReportQuery asks for the staff report.
type GenerateReportQuery struct {
	StaffID string `validate:"required" label:"staff"`
	Filter  report.Filter
}

// GenerateReportHandler handles GenerateReportQuery.
type GenerateReportHandler struct {
	deps Deps
}

// NewGenerateReportHandler creates a new GenerateReportHandler.
func NewGenerateReportHandler(deps Deps) *GenerateReportHandler {
	return &GenerateReportHandler{deps: deps}
}

// Handle builds the report over the current state.
func (h *GenerateReportHandler) Handle(ctx context.Context, q GenerateReportQuery) (*report.Report, error) {
	if err := shared.ValidateStruct("query", "GenerateReport", q); err != nil {
		return nil, err
	}
	h.deps.reload(ctx, "GenerateReport", h.deps.Users, h.deps.Opportunities, h.deps.Applications)

	staff, err := h.deps.staff(ctx, "GenerateReport", q.StaffID)
	if err != nil {
		return nil, err
	}

	opps := h.deps.Opportunities.FindAll(ctx)
	apps := liveApplications(h.deps.Applications.FindAll(ctx), opps)
	r := report.Build(q.Filter, opps, apps, h.deps.now())

	applications, filled, remaining := r.Totals()
	h.deps.log("GenerateReport").Info("report generated",
		logger.UserID(staff.ID),
		logger.Int("rows", len(r.Rows)),
		logger.Int("applications", applications),
		logger.Int("filled", filled),
		logger.Int("remaining", remaining),
	)
	return r, nil
}
