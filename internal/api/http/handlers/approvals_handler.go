package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// ApprovalsHandler manages the approver's endpoints.
type ApprovalsHandler struct {
	approvals *service.ApprovalService
	tickets   *service.TicketService
}

// NewApprovalsHandler constructs handler.
func NewApprovalsHandler(approvals *service.ApprovalService, tickets *service.TicketService) *ApprovalsHandler {
	return &ApprovalsHandler{approvals: approvals, tickets: tickets}
}

// Decide POST /api/tickets/:id/approval.
func (h *ApprovalsHandler) Decide(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ApprovalRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.approvals.Decide(c.Context(), caller, c.Params("id"), req.Approve, req.Comment); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ApprovalResponse{Success: true}})
}

// ListPending GET /api/approvals/pending.
func (h *ApprovalsHandler) ListPending(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	tickets, err := h.tickets.ListPendingApprovals(c.Context(), caller, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		readout := h.tickets.SLAReadoutFor(c.Context(), &tickets[i])
		items = append(items, ticketResponse(&tickets[i], readout, nil))
	}
	return c.JSON(fiber.Map{"data": items})
}
