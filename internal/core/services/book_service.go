package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"bookclub-lms/internal/adapters/persistence/models"
	"bookclub-lms/internal/adapters/persistence/repositories"
	"bookclub-lms/internal/core/domain"

	"gorm.io/gorm"
)

// Book service errors
var (
	ErrISBNTaken      = errors.New("book with this ISBN already exists")
	ErrISBNGeneration = errors.New("could not generate a unique ISBN")
)

// isbnGenerateAttempts bounds the collision-retry loop
const isbnGenerateAttempts = 10

// BookService handles catalog business logic
type BookService struct {
	bookRepo repositories.BookRepository
}

// NewBookService creates a new book service
func NewBookService(bookRepo repositories.BookRepository) *BookService {
	return &BookService{bookRepo: bookRepo}
}

// CreateBookInput represents create book input
type CreateBookInput struct {
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	ISBN            string     `json:"isbn,omitempty"`
	PublishedDate   *time.Time `json:"published_date,omitempty"`
	Genre           string     `json:"genre,omitempty"`
	Description     string     `json:"description,omitempty"`
	CopiesAvailable int        `json:"copies_available"`
}

// Create catalogs a new book. When no ISBN is supplied one is generated,
// retrying on collision up to a fixed ceiling.
func (s *BookService) Create(ctx context.Context, input *CreateBookInput, createdBy string) (*models.Book, error) {
	isbn := input.ISBN
	if isbn != "" {
		exists, err := s.bookRepo.ExistsByISBN(ctx, isbn)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrISBNTaken
		}
	} else {
		generated, err := s.generateISBN(ctx)
		if err != nil {
			return nil, err
		}
		isbn = generated
	}

	copies := input.CopiesAvailable
	if copies < 1 {
		copies = 1
	}

	book := &models.Book{
		ISBN:            isbn,
		Title:           input.Title,
		Author:          input.Author,
		PublishedDate:   input.PublishedDate,
		Genre:           input.Genre,
		Description:     input.Description,
		CopiesAvailable: copies,
		CreatedBy:       createdBy,
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, err
	}

	log.Printf("📚 Book cataloged: %q (%s)", book.Title, book.ISBN)
	return book, nil
}

// generateISBN produces a candidate ISBN and re-rolls on collision
func (s *BookService) generateISBN(ctx context.Context) (string, error) {
	for i := 0; i < isbnGenerateAttempts; i++ {
		candidate := fmt.Sprintf("ISBN-%d-%04d", time.Now().UnixMilli(), 1000+rand.Intn(9000))
		exists, err := s.bookRepo.ExistsByISBN(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrISBNGeneration
}

// GetByID gets a book by ID
func (s *BookService) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

// List lists books matching the filter
func (s *BookService) List(ctx context.Context, filter repositories.BookFilter, offset, limit int) ([]*models.Book, int64, error) {
	return s.bookRepo.List(ctx, filter, offset, limit)
}

// UpdateBookInput represents update book input; nil fields are left alone
type UpdateBookInput struct {
	Title           *string    `json:"title,omitempty"`
	Author          *string    `json:"author,omitempty"`
	PublishedDate   *time.Time `json:"published_date,omitempty"`
	Genre           *string    `json:"genre,omitempty"`
	Description     *string    `json:"description,omitempty"`
	CopiesAvailable *int       `json:"copies_available,omitempty"`
}

// Update edits a catalog entry
func (s *BookService) Update(ctx context.Context, id uint, input *UpdateBookInput, updatedBy string) (*models.Book, error) {
	book, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		book.Title = *input.Title
	}
	if input.Author != nil {
		book.Author = *input.Author
	}
	if input.PublishedDate != nil {
		book.PublishedDate = input.PublishedDate
	}
	if input.Genre != nil {
		book.Genre = *input.Genre
	}
	if input.Description != nil {
		book.Description = *input.Description
	}
	if input.CopiesAvailable != nil {
		if *input.CopiesAvailable < 0 {
			return nil, domain.ErrNegativeCopyCount
		}
		book.CopiesAvailable = *input.CopiesAvailable
	}
	book.UpdatedBy = updatedBy

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// Delete soft deletes a book; the row stays for loan history
func (s *BookService) Delete(ctx context.Context, id uint) error {
	if err := s.bookRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrBookNotFound
		}
		return err
	}
	return nil
}

// Genres returns the distinct genres in the catalog
func (s *BookService) Genres(ctx context.Context) ([]string, error) {
	return s.bookRepo.Genres(ctx)
}
