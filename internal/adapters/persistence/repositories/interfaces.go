package repositories

import (
	"context"
	"time"

	"bookclub-lms/internal/adapters/persistence/models"
)

// BookRepository defines catalog data access
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id uint) (*models.Book, error)
	GetByISBN(ctx context.Context, isbn string) (*models.Book, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.Book, error)
	List(ctx context.Context, filter BookFilter, offset, limit int) ([]*models.Book, int64, error)
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id uint) error
	Genres(ctx context.Context) ([]string, error)
	ExistsByISBN(ctx context.Context, isbn string) (bool, error)
	// DecrementCopies is the atomic availability gate: the decrement only
	// happens when at least one copy remains, reported via the returned bool.
	DecrementCopies(ctx context.Context, id uint) (bool, error)
	IncrementCopies(ctx context.Context, id uint) error
}

// BookFilter narrows catalog listings
type BookFilter struct {
	Genre string
	Title string
	ISBN  string
}

// ReaderRepository defines borrower data access
type ReaderRepository interface {
	Create(ctx context.Context, reader *models.Reader) error
	GetByID(ctx context.Context, id uint) (*models.Reader, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.Reader, error)
	List(ctx context.Context, offset, limit int) ([]*models.Reader, int64, error)
	Update(ctx context.Context, reader *models.Reader) error
	Deactivate(ctx context.Context, id uint, deletedBy string) error
	ExistsByMemberID(ctx context.Context, memberID string) (bool, error)
	ExistsByNIC(ctx context.Context, nic string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// LoanRepository defines lending ledger access
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	GetByID(ctx context.Context, id uint) (*models.Loan, error)
	// MarkReturned performs the single atomic OUTSTANDING→RETURNED transition.
	// It only succeeds when the loan is still outstanding, reported via the
	// returned bool; losers of a concurrent double-return see false.
	MarkReturned(ctx context.Context, id uint, returnDate time.Time, fineAmount float64) (bool, error)
	ListAll(ctx context.Context) ([]*models.Loan, error)
	ListByReader(ctx context.Context, readerID uint) ([]*models.Loan, error)
	ListByBook(ctx context.Context, bookID uint) ([]*models.Loan, error)
	ListOverdue(ctx context.Context, now time.Time) ([]*models.Loan, error)
	ListReturnedOverdue(ctx context.Context) ([]*models.Loan, error)
	// ListDueSoonUnnotified returns outstanding loans whose due date falls in
	// (now, now+lead] and that have not been reminded yet.
	ListDueSoonUnnotified(ctx context.Context, now time.Time, lead time.Duration) ([]*models.Loan, error)
	MarkReminderSent(ctx context.Context, id uint) error
	CountOutstandingByBook(ctx context.Context, bookID uint) (int64, error)
}

// UserRepository defines staff account data access
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepository defines refresh token data access
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}
