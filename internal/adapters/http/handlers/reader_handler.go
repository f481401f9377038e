package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"bookclub-lms/internal/core/domain"
	"bookclub-lms/internal/core/services"
	"bookclub-lms/internal/pkg/pagination"
	"bookclub-lms/internal/pkg/response"
)

type ReaderHandler struct {
	readerService *services.ReaderService
}

func NewReaderHandler(readerService *services.ReaderService) *ReaderHandler {
	return &ReaderHandler{readerService: readerService}
}

// Create registers a new reader
func (h *ReaderHandler) Create(c *fiber.Ctx) error {
	var req services.CreateReaderInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.FullName == "" || req.NIC == "" || req.Email == "" {
		return response.BadRequest(c, "full_name, nic and email are required")
	}

	actor, _ := c.Locals("username").(string)

	reader, err := h.readerService.Create(c.Context(), &req, actor)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidNIC), errors.Is(err, services.ErrInvalidEmail):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrNICTaken), errors.Is(err, services.ErrEmailTaken):
			return response.Conflict(c, err.Error())
		case errors.Is(err, services.ErrMemberIDGeneration):
			return response.InternalServerError(c, "Could not generate a unique member ID")
		default:
			log.Printf("❌ Reader create failed: %v", err)
			return response.InternalServerError(c, "Failed to register reader")
		}
	}

	return response.Created(c, "Reader registered", reader)
}

func (h *ReaderHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	readers, total, err := h.readerService.List(c.Context(), params.Offset, params.Limit)
	if err != nil {
		log.Printf("❌ Reader list failed: %v", err)
		return response.InternalServerError(c, "Failed to list readers")
	}

	return response.Success(c, "OK", pagination.NewResponse(readers, params, total))
}

// GetByIdentifier resolves a reader by numeric ID, member ID or NIC
func (h *ReaderHandler) GetByIdentifier(c *fiber.Ctx) error {
	identifier := c.Params("identifier")
	if identifier == "" {
		return response.BadRequest(c, "Reader identifier is required")
	}

	reader, err := h.readerService.GetByIdentifier(c.Context(), identifier)
	if err != nil {
		if errors.Is(err, domain.ErrReaderNotFound) {
			return response.NotFound(c, "Reader not found")
		}
		return response.InternalServerError(c, "Failed to load reader")
	}

	return response.Success(c, "OK", reader)
}

func (h *ReaderHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid reader ID")
	}

	var req services.UpdateReaderInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	actor, _ := c.Locals("username").(string)

	reader, err := h.readerService.Update(c.Context(), uint(id), &req, actor)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrReaderNotFound):
			return response.NotFound(c, "Reader not found")
		case errors.Is(err, services.ErrInvalidEmail):
			return response.BadRequest(c, err.Error())
		default:
			log.Printf("❌ Reader update failed: %v", err)
			return response.InternalServerError(c, "Failed to update reader")
		}
	}

	return response.Success(c, "Reader updated", reader)
}

// Deactivate marks a reader inactive. Inactive readers cannot borrow
// but their lending history is kept.
func (h *ReaderHandler) Deactivate(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid reader ID")
	}

	actor, _ := c.Locals("username").(string)

	if err := h.readerService.Deactivate(c.Context(), uint(id), actor); err != nil {
		if errors.Is(err, domain.ErrReaderNotFound) {
			return response.NotFound(c, "Reader not found")
		}
		log.Printf("❌ Reader deactivate failed: %v", err)
		return response.InternalServerError(c, "Failed to deactivate reader")
	}

	return response.Success(c, "Reader deactivated", nil)
}
