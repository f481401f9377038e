package services

import (
	"context"
	"errors"
	"log"
	"time"

	"bookclub-lms/internal/adapters/persistence/models"
	"bookclub-lms/internal/adapters/persistence/repositories"
	"bookclub-lms/internal/core/domain"

	"gorm.io/gorm"
)

// LendingService orchestrates the loan lifecycle: it validates reader and
// book, mutates the ledger and the availability counter, and computes fines
// at return time. A loan has exactly two states, outstanding and returned;
// "overdue" is derived from the due date, never stored.
type LendingService struct {
	loanRepo   repositories.LoanRepository
	bookRepo   repositories.BookRepository
	readerRepo repositories.ReaderRepository
	policy     domain.FinePolicy

	now func() time.Time
}

// NewLendingService creates a new lending service
func NewLendingService(
	loanRepo repositories.LoanRepository,
	bookRepo repositories.BookRepository,
	readerRepo repositories.ReaderRepository,
	policy domain.FinePolicy,
) *LendingService {
	return &LendingService{
		loanRepo:   loanRepo,
		bookRepo:   bookRepo,
		readerRepo: readerRepo,
		policy:     policy,
		now:        time.Now,
	}
}

// LendInput represents a lend request
type LendInput struct {
	ReaderIdentifier string     `json:"reader"`
	BookIdentifier   string     `json:"book"`
	DueDate          *time.Time `json:"due_date,omitempty"`
}

// Lend lends one copy of a book to a reader. The availability check and the
// decrement are one conditional update in the repository, so two lends racing
// on the last copy cannot both succeed.
func (s *LendingService) Lend(ctx context.Context, input *LendInput) (*models.Loan, error) {
	reader, err := s.readerRepo.GetByIdentifier(ctx, input.ReaderIdentifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReaderNotFound
		}
		return nil, err
	}
	if !reader.IsActive {
		return nil, domain.ErrReaderNotFound
	}

	book, err := s.bookRepo.GetByIdentifier(ctx, input.BookIdentifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	if book.CopiesAvailable <= 0 {
		return nil, domain.ErrBookUnavailable
	}

	lendDate := s.now()
	dueDate := s.policy.DueDate(lendDate, input.DueDate)

	// The conditional decrement is the real gate; the pre-check above only
	// produces a friendlier rejection without burning a ledger insert.
	ok, err := s.bookRepo.DecrementCopies(ctx, book.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrBookUnavailable
	}

	loan := &models.Loan{
		ReaderID: reader.ID,
		BookID:   book.ID,
		LendDate: lendDate,
		DueDate:  dueDate,
	}
	if err := s.loanRepo.Create(ctx, loan); err != nil {
		// Compensate the decrement so the counter does not leak a copy.
		if incErr := s.bookRepo.IncrementCopies(ctx, book.ID); incErr != nil {
			log.Printf("❌ Failed to compensate copy count for book %d: %v", book.ID, incErr)
		}
		return nil, err
	}

	log.Printf("📖 Lent book %d to reader %s, due %s", book.ID, reader.MemberID, dueDate.Format(time.RFC3339))

	if full, err := s.loanRepo.GetByID(ctx, loan.ID); err == nil {
		return full, nil
	}
	return loan, nil
}

// Return marks a loan as returned, computes the fine from the configured
// policy and releases the copy back to inventory. The second return attempt
// on the same loan is rejected with ErrAlreadyReturned and leaves the fine
// and return date untouched.
func (s *LendingService) Return(ctx context.Context, loanID uint) (*models.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	if loan.IsReturned {
		return nil, domain.ErrAlreadyReturned
	}

	returnDate := s.now()
	fine := s.policy.ComputeFine(loan.DueDate, returnDate)

	ok, err := s.loanRepo.MarkReturned(ctx, loanID, returnDate, fine)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race against a concurrent return.
		return nil, domain.ErrAlreadyReturned
	}

	if err := s.bookRepo.IncrementCopies(ctx, loan.BookID); err != nil {
		// The loan transition already committed; the counter is off by one
		// until corrected manually.
		log.Printf("❌ Failed to release copy for book %d: %v", loan.BookID, err)
	}

	if fine > 0 {
		log.Printf("💰 Loan %d returned late, fine %.2f", loanID, fine)
	}

	if updated, err := s.loanRepo.GetByID(ctx, loanID); err == nil {
		return updated, nil
	}
	loan.IsReturned = true
	loan.ReturnDate = &returnDate
	loan.FineAmount = fine
	return loan, nil
}

// GetByReader returns the loan history of a reader
func (s *LendingService) GetByReader(ctx context.Context, readerIdentifier string) ([]*models.Loan, error) {
	reader, err := s.readerRepo.GetByIdentifier(ctx, readerIdentifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReaderNotFound
		}
		return nil, err
	}
	return s.loanRepo.ListByReader(ctx, reader.ID)
}

// GetByBook returns the loan history of a book
func (s *LendingService) GetByBook(ctx context.Context, bookIdentifier string) ([]*models.Loan, error) {
	book, err := s.bookRepo.GetByIdentifier(ctx, bookIdentifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	return s.loanRepo.ListByBook(ctx, book.ID)
}

// GetAll returns the full ledger
func (s *LendingService) GetAll(ctx context.Context) ([]*models.Loan, error) {
	return s.loanRepo.ListAll(ctx)
}

// GetOverdue returns outstanding loans past their due date
func (s *LendingService) GetOverdue(ctx context.Context) ([]*models.Loan, error) {
	return s.loanRepo.ListOverdue(ctx, s.now())
}

// GetReturnedOverdue returns loans that were returned late
func (s *LendingService) GetReturnedOverdue(ctx context.Context) ([]*models.Loan, error) {
	return s.loanRepo.ListReturnedOverdue(ctx)
}
