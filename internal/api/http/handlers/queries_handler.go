package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/query-service/internal/api/dto"
	"github.com/spec-kit/query-service/internal/auth"
	"github.com/spec-kit/query-service/internal/domain"
	"github.com/spec-kit/query-service/internal/service"
	apperrors "github.com/spec-kit/query-service/pkg/util/errorutil"
)

// QueriesHandler serves the query (ticket) endpoints for students and admins.
type QueriesHandler struct {
	service *service.QueryService
}

// NewQueriesHandler constructs handler.
func NewQueriesHandler(queryService *service.QueryService) *QueriesHandler {
	return &QueriesHandler{service: queryService}
}

// ListAll GET /tickets.
func (h *QueriesHandler) ListAll(c *fiber.Ctx) error {
	principal, err := principal(c)
	if err != nil {
		return err
	}
	queries, err := h.service.ListForAdmin(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQueryListResponse(queries)})
}

// ListMine GET /tickets/mine.
func (h *QueriesHandler) ListMine(c *fiber.Ctx) error {
	principal, err := principal(c)
	if err != nil {
		return err
	}
	queries, err := h.service.ListForStudent(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQueryListResponse(queries)})
}

// Get GET /tickets/:id.
func (h *QueriesHandler) Get(c *fiber.Ctx) error {
	principal, err := principal(c)
	if err != nil {
		return err
	}
	q, err := h.service.GetTicket(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQueryResponse(q)})
}

// Create POST /tickets.
func (h *QueriesHandler) Create(c *fiber.Ctx) error {
	principal, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateQueryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	q, err := h.service.CreateTicket(c.UserContext(), principal, service.CreateQueryInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewQueryResponse(q)})
}

// Reply POST /tickets/:id/reply.
func (h *QueriesHandler) Reply(c *fiber.Ctx) error {
	principal, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	q, err := h.service.Reply(c.UserContext(), principal, c.Params("id"), req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQueryResponse(q)})
}

// SetStatus PUT /tickets/:id/status.
func (h *QueriesHandler) SetStatus(c *fiber.Ctx) error {
	principal, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	q, err := h.service.SetStatus(c.UserContext(), principal, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQueryResponse(q)})
}

// SetPriority PUT /tickets/:id/priority.
func (h *QueriesHandler) SetPriority(c *fiber.Ctx) error {
	principal, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.PriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	q, err := h.service.SetPriority(c.UserContext(), principal, c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQueryResponse(q)})
}

// ToggleFavorite PUT /tickets/:id/favorite.
func (h *QueriesHandler) ToggleFavorite(c *fiber.Ctx) error {
	principal, err := principal(c)
	if err != nil {
		return err
	}
	q, err := h.service.ToggleFavorite(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQueryResponse(q)})
}

// MarkRead PUT /tickets/:id/read.
func (h *QueriesHandler) MarkRead(c *fiber.Ctx) error {
	principal, err := principal(c)
	if err != nil {
		return err
	}
	q, err := h.service.MarkRead(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQueryResponse(q)})
}

// Delete DELETE /tickets/:id.
func (h *QueriesHandler) Delete(c *fiber.Ctx) error {
	principal, err := principal(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if err := h.service.Delete(c.UserContext(), principal, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DeleteResponse{ID: id, Deleted: true}})
}

func principal(c *fiber.Ctx) (domain.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.Principal{}, apperrors.NewUnauthorized("authentication required")
	}
	return p, nil
}
