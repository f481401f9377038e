package repositories

import (
	"context"
	"time"

	"bookclub-lms/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// loanRepository implements LoanRepository
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// Create inserts a new outstanding loan
func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// GetByID gets a loan by ID with reader and book preloaded
func (r *loanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("Reader").
		Preload("Book").
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// MarkReturned transitions a loan to returned in a single conditional
// UPDATE. The is_returned guard makes the transition happen exactly once:
// of two racing return calls only one sees RowsAffected > 0, and the fine
// and return date written by the winner are never overwritten.
func (r *loanRepository) MarkReturned(ctx context.Context, id uint, returnDate time.Time, fineAmount float64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND is_returned = ?", id, false).
		Updates(map[string]interface{}{
			"is_returned": true,
			"return_date": returnDate,
			"fine_amount": fineAmount,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListAll returns the full ledger, newest first
func (r *loanRepository) ListAll(ctx context.Context) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Preload("Reader").
		Preload("Book").
		Order("lend_date DESC").
		Find(&loans).Error
	return loans, err
}

// ListByReader returns loan history for a reader
func (r *loanRepository) ListByReader(ctx context.Context, readerID uint) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("reader_id = ?", readerID).
		Order("lend_date DESC").
		Find(&loans).Error
	return loans, err
}

// ListByBook returns loan history for a book
func (r *loanRepository) ListByBook(ctx context.Context, bookID uint) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Preload("Reader").
		Where("book_id = ?", bookID).
		Order("lend_date DESC").
		Find(&loans).Error
	return loans, err
}

// ListOverdue returns outstanding loans past their due date. Overdue is a
// derived predicate, never a stored state.
func (r *loanRepository) ListOverdue(ctx context.Context, now time.Time) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := withRetry(ctx, func() error {
		return r.db.WithContext(ctx).
			Preload("Reader").
			Preload("Book").
			Where("due_date < ? AND is_returned = ?", now, false).
			Order("due_date ASC").
			Find(&loans).Error
	})
	return loans, err
}

// ListReturnedOverdue returns loans that came back late
func (r *loanRepository) ListReturnedOverdue(ctx context.Context) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Preload("Reader").
		Preload("Book").
		Where("is_returned = ? AND return_date > due_date", true).
		Order("return_date DESC").
		Find(&loans).Error
	return loans, err
}

// ListDueSoonUnnotified returns outstanding, not-yet-reminded loans due
// within the lead window. Reading current state here is what suppresses
// reminders for loans returned since the previous sweep.
func (r *loanRepository) ListDueSoonUnnotified(ctx context.Context, now time.Time, lead time.Duration) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := withRetry(ctx, func() error {
		return r.db.WithContext(ctx).
			Preload("Reader").
			Preload("Book").
			Where("is_returned = ? AND reminder_sent = ?", false, false).
			Where("due_date > ? AND due_date <= ?", now, now.Add(lead)).
			Find(&loans).Error
	})
	return loans, err
}

// MarkReminderSent sets the durable at-most-once marker for a loan
func (r *loanRepository) MarkReminderSent(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ?", id).
		UpdateColumn("reminder_sent", true).Error
}

// CountOutstandingByBook counts unreturned loans for a book
func (r *loanRepository) CountOutstandingByBook(ctx context.Context, bookID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("book_id = ? AND is_returned = ?", bookID, false).
		Count(&count).Error
	return count, err
}
