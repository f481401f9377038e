package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"bookclub-lms/internal/adapters/persistence/models"
	"bookclub-lms/internal/core/domain"
	"bookclub-lms/internal/core/services"
	"bookclub-lms/internal/pkg/response"
)

type LendingHandler struct {
	lendingService *services.LendingService
}

func NewLendingHandler(lendingService *services.LendingService) *LendingHandler {
	return &LendingHandler{lendingService: lendingService}
}

// Lend checks out one copy of a book to a reader
func (h *LendingHandler) Lend(c *fiber.Ctx) error {
	var req services.LendInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.ReaderIdentifier == "" || req.BookIdentifier == "" {
		return response.BadRequest(c, "reader and book are required")
	}

	loan, err := h.lendingService.Lend(c.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrReaderNotFound):
			return response.NotFound(c, "Reader not found or inactive")
		case errors.Is(err, domain.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, domain.ErrBookUnavailable):
			return response.BadRequest(c, "No copies of this book are available")
		default:
			log.Printf("❌ Lend failed: %v", err)
			return response.InternalServerError(c, "Failed to lend book")
		}
	}

	return response.Created(c, "Book lent", loan.ToResponse())
}

// Return closes a loan and reports the fine, if any. Returning an
// already-returned loan is rejected, not a no-op.
func (h *LendingHandler) Return(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.lendingService.Return(c.Context(), uint(id))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, domain.ErrAlreadyReturned):
			return response.BadRequest(c, "Loan has already been returned")
		default:
			log.Printf("❌ Return failed: %v", err)
			return response.InternalServerError(c, "Failed to return book")
		}
	}

	return response.Success(c, "Book returned", loan.ToResponse())
}

// ByBook lists the lending history of a book, resolved by ID or ISBN
func (h *LendingHandler) ByBook(c *fiber.Ctx) error {
	identifier := c.Params("identifier")
	if identifier == "" {
		return response.BadRequest(c, "Book identifier is required")
	}

	loans, err := h.lendingService.GetByBook(c.Context(), identifier)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		log.Printf("❌ Lending history by book failed: %v", err)
		return response.InternalServerError(c, "Failed to load lending history")
	}

	return response.Success(c, "OK", toLoanResponses(loans))
}

// ByReader lists the lending history of a reader, resolved by
// numeric ID, member ID or NIC
func (h *LendingHandler) ByReader(c *fiber.Ctx) error {
	identifier := c.Params("identifier")
	if identifier == "" {
		return response.BadRequest(c, "Reader identifier is required")
	}

	loans, err := h.lendingService.GetByReader(c.Context(), identifier)
	if err != nil {
		if errors.Is(err, domain.ErrReaderNotFound) {
			return response.NotFound(c, "Reader not found")
		}
		log.Printf("❌ Lending history by reader failed: %v", err)
		return response.InternalServerError(c, "Failed to load lending history")
	}

	return response.Success(c, "OK", toLoanResponses(loans))
}

// Overdue lists open loans past their due date
func (h *LendingHandler) Overdue(c *fiber.Ctx) error {
	loans, err := h.lendingService.GetOverdue(c.Context())
	if err != nil {
		log.Printf("❌ Overdue list failed: %v", err)
		return response.InternalServerError(c, "Failed to list overdue loans")
	}

	return response.Success(c, "OK", toLoanResponses(loans))
}

// ReturnedOverdue lists closed loans that were returned after
// their due date, i.e. loans that accrued a fine
func (h *LendingHandler) ReturnedOverdue(c *fiber.Ctx) error {
	loans, err := h.lendingService.GetReturnedOverdue(c.Context())
	if err != nil {
		log.Printf("❌ Returned-overdue list failed: %v", err)
		return response.InternalServerError(c, "Failed to list returned overdue loans")
	}

	return response.Success(c, "OK", toLoanResponses(loans))
}

// All lists every loan in the ledger
func (h *LendingHandler) All(c *fiber.Ctx) error {
	loans, err := h.lendingService.GetAll(c.Context())
	if err != nil {
		log.Printf("❌ Loan list failed: %v", err)
		return response.InternalServerError(c, "Failed to list loans")
	}

	return response.Success(c, "OK", toLoanResponses(loans))
}

func toLoanResponses(loans []*models.Loan) []*models.LoanResponse {
	out := make([]*models.LoanResponse, 0, len(loans))
	for _, loan := range loans {
		out = append(out, loan.ToResponse())
	}
	return out
}
