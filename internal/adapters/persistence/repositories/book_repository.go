package repositories

import (
	"context"
	"errors"
	"strconv"

	"bookclub-lms/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// bookRepository implements BookRepository
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

// Create creates a new book
func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// GetByID gets a book by ID
func (r *bookRepository) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByISBN gets a book by ISBN
func (r *bookRepository) GetByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).Where("isbn = ?", isbn).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByIdentifier resolves a book by numeric ID or ISBN. The id column is
// only ever compared against all-digit input; matching it against an
// arbitrary string would let MySQL coerce the string to its digit prefix
// and resolve the wrong row.
func (r *bookRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.Book, error) {
	if id, err := strconv.ParseUint(identifier, 10, 32); err == nil {
		book, err := r.GetByID(ctx, uint(id))
		if err == nil {
			return book, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return r.GetByISBN(ctx, identifier)
}

// List lists books matching the filter with pagination
func (r *bookRepository) List(ctx context.Context, filter BookFilter, offset, limit int) ([]*models.Book, int64, error) {
	var books []*models.Book
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Book{})
	if filter.Genre != "" {
		query = query.Where("genre = ?", filter.Genre)
	}
	if filter.Title != "" {
		query = query.Where("title LIKE ?", "%"+filter.Title+"%")
	}
	if filter.ISBN != "" {
		query = query.Where("isbn LIKE ?", "%"+filter.ISBN+"%")
	}

	query.Count(&total)

	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&books).Error

	return books, total, err
}

// Update updates a book
func (r *bookRepository) Update(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

// Delete soft deletes a book
func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Book{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Genres returns the distinct genres of non-deleted books
func (r *bookRepository) Genres(ctx context.Context) ([]string, error) {
	var genres []string
	err := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("genre <> ''").
		Distinct().
		Pluck("genre", &genres).Error
	return genres, err
}

// ExistsByISBN checks whether a book with the given ISBN exists
func (r *bookRepository) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("isbn = ?", isbn).
		Count(&count).Error
	return count > 0, err
}

// DecrementCopies decrements the availability counter by one as a single
// conditional UPDATE. The guard in the WHERE clause means the counter can
// never go negative, no matter how many lends race on the last copy.
func (r *bookRepository) DecrementCopies(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND copies_available > 0", id).
		UpdateColumn("copies_available", gorm.Expr("copies_available - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IncrementCopies increments the availability counter by one
func (r *bookRepository) IncrementCopies(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", id).
		UpdateColumn("copies_available", gorm.Expr("copies_available + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("book not found for increment")
	}
	return nil
}
