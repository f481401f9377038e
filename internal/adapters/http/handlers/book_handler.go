package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"bookclub-lms/internal/adapters/persistence/repositories"
	"bookclub-lms/internal/core/domain"
	"bookclub-lms/internal/core/services"
	"bookclub-lms/internal/pkg/pagination"
	"bookclub-lms/internal/pkg/response"
)

type BookHandler struct {
	bookService *services.BookService
}

func NewBookHandler(bookService *services.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// Create catalogs a new book
func (h *BookHandler) Create(c *fiber.Ctx) error {
	var req services.CreateBookInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Title == "" || req.Author == "" {
		return response.BadRequest(c, "title and author are required")
	}
	if req.CopiesAvailable < 0 {
		return response.BadRequest(c, "copies_available cannot be negative")
	}

	actor, _ := c.Locals("username").(string)

	book, err := h.bookService.Create(c.Context(), &req, actor)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrISBNTaken):
			return response.Conflict(c, "A book with this ISBN already exists")
		case errors.Is(err, services.ErrISBNGeneration):
			return response.InternalServerError(c, "Could not generate a unique ISBN")
		default:
			log.Printf("❌ Book create failed: %v", err)
			return response.InternalServerError(c, "Failed to create book")
		}
	}

	return response.Created(c, "Book created", book)
}

// List returns the catalog, paginated and optionally filtered by
// genre, title or ISBN query parameters.
func (h *BookHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	filter := repositories.BookFilter{
		Genre: c.Query("genre"),
		Title: c.Query("title"),
		ISBN:  c.Query("isbn"),
	}

	books, total, err := h.bookService.List(c.Context(), filter, params.Offset, params.Limit)
	if err != nil {
		log.Printf("❌ Book list failed: %v", err)
		return response.InternalServerError(c, "Failed to list books")
	}

	return response.Success(c, "OK", pagination.NewResponse(books, params, total))
}

func (h *BookHandler) GetByID(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	book, err := h.bookService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to load book")
	}

	return response.Success(c, "OK", book)
}

func (h *BookHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	var req services.UpdateBookInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	actor, _ := c.Locals("username").(string)

	book, err := h.bookService.Update(c.Context(), uint(id), &req, actor)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, domain.ErrNegativeCopyCount):
			return response.BadRequest(c, "copies_available cannot be negative")
		default:
			log.Printf("❌ Book update failed: %v", err)
			return response.InternalServerError(c, "Failed to update book")
		}
	}

	return response.Success(c, "Book updated", book)
}

func (h *BookHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	if err := h.bookService.Delete(c.Context(), uint(id)); err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		log.Printf("❌ Book delete failed: %v", err)
		return response.InternalServerError(c, "Failed to delete book")
	}

	return response.Success(c, "Book deleted", nil)
}

// Genres returns the distinct genres present in the catalog
func (h *BookHandler) Genres(c *fiber.Ctx) error {
	genres, err := h.bookService.Genres(c.Context())
	if err != nil {
		log.Printf("❌ Genre list failed: %v", err)
		return response.InternalServerError(c, "Failed to list genres")
	}

	return response.Success(c, "OK", genres)
}
