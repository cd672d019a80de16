package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketsHandler manages ticket lifecycle endpoints.
type TicketsHandler struct {
	tickets     *service.TicketService
	transitions *service.TransitionService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, transitions *service.TransitionService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, transitions: transitions}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.CreateTicketInput{
		Type:           domain.TicketType(req.Type),
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Impact:         domain.Impact(req.Impact),
		RequestedFor:   req.RequestedFor,
		AdditionalInfo: req.AdditionalInfo,
	}
	ticket, err := h.tickets.CreateTicket(c.Context(), caller, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CreateTicketResponse{
		ID:     ticket.ID,
		Number: ticket.Number,
	}})
}

// GetTicket GET /api/tickets/:id. The path segment accepts either the
// ticket id or its human-readable number (INC.../TSK...).
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	if _, ok := auth.CallerFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ref := c.Params("id")
	var (
		ticket   *domain.Ticket
		comments []domain.Comment
		err      error
	)
	if isTicketNumber(ref) {
		ticket, comments, err = h.tickets.GetTicketByNumber(c.Context(), ref)
	} else {
		ticket, comments, err = h.tickets.GetTicket(c.Context(), ref)
	}
	if err != nil {
		return err
	}
	readout := h.tickets.SLAReadoutFor(c.Context(), ticket)
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, readout, comments)})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseListQuery(c)
	tickets, err := h.tickets.ListTickets(c.Context(), caller, filter)
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

// TransitionTicket POST /api/tickets/:id/transition.
func (h *TicketsHandler) TransitionTicket(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.transitions.TransitionTicket(c.Context(), caller, c.Params("id"), service.TransitionInput{
		StatusID:    req.StatusID,
		AssigneeID:  req.AssigneeID,
		AssigneeSet: req.AssigneeSet,
		Close:       req.Close,
	})
	if err != nil {
		return err
	}
	readout := h.tickets.SLAReadoutFor(c.Context(), ticket)
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, readout, nil)})
}

// AddComment POST /api/tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.tickets.AddComment(c.Context(), caller, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// ListComments GET /api/tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	if _, ok := auth.CallerFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	comments, err := h.tickets.ListComments(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseListQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{
		Mine: c.Query("mine") == "true",
	}
	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		ticketType := domain.TicketType(raw)
		filter.Type = &ticketType
	}
	if id := parseInt64(c.Query("statusId")); id != nil {
		filter.StatusID = id
	}
	if id := parseInt64(c.Query("locationId")); id != nil {
		filter.LocationID = id
	}
	if assignee := strings.TrimSpace(c.Query("assignedToId")); assignee != "" {
		filter.AssignedToID = &assignee
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func isTicketNumber(ref string) bool {
	return strings.HasPrefix(ref, "INC") || strings.HasPrefix(ref, "TSK")
}

func parseInt64(val string) *int64 {
	if val == "" {
		return nil
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.Ticket, readout service.SLAReadout, comments []domain.Comment) dto.TicketResponse {
	resp := dto.TicketResponse{
		ID:                ticket.ID,
		Number:            ticket.Number,
		Type:              ticket.Type,
		Title:             ticket.Title,
		Description:       ticket.Description,
		StatusID:          ticket.StatusID,
		PriorityID:        ticket.PriorityID,
		CategoryID:        ticket.CategoryID,
		SLAID:             ticket.SLAID,
		AssignmentGroupID: ticket.AssignmentGroupID,
		AssignedToID:      ticket.AssignedToID,
		LocationID:        ticket.LocationID,
		CreatedByID:       ticket.CreatedByID,
		ApproverID:        ticket.ApproverID,
		IsApproved:        ticket.IsApproved,
		RequestedFor:      ticket.RequestedFor,
		AdditionalInfo:    ticket.AdditionalInfo,
		CreationDate:      ticket.CreatedAt,
		UpdateDate:        ticket.UpdatedAt,
		ResponseDate:      ticket.ResponseDueAt,
		ClosedDate:        ticket.ClosedAt,
		IsBreached:        ticket.SLABreached,
		UpdatedByID:       ticket.UpdatedByID,
		ClosedByID:        ticket.ClosedByID,
		ResponseLate:      readout.ResponseLate,
		ResolutionDate:    readout.ResolutionDueAt,
		ResolutionLate:    readout.ResolutionLate,
	}
	for i := range comments {
		resp.Comments = append(resp.Comments, commentResponse(&comments[i]))
	}
	return resp
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:          comment.ID,
		CreatedByID: comment.CreatedByID,
		Content:     comment.Content,
		CreatedAt:   comment.CreatedAt,
	}
}
