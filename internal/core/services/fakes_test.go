package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"gorm.io/gorm"

	"bookclub-lms/internal/adapters/persistence/models"
	"bookclub-lms/internal/adapters/persistence/repositories"
)

var errSendFailed = errors.New("smtp connection refused")

// In-memory repositories used across the service tests. They guard state
// with a mutex so the concurrency tests exercise the same atomicity the
// SQL conditional updates provide.

type fakeBookRepo struct {
	mu    sync.Mutex
	books map[uint]*models.Book
	seq   uint
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{books: make(map[uint]*models.Book)}
}

func (r *fakeBookRepo) Create(_ context.Context, book *models.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	book.ID = r.seq
	clone := *book
	r.books[book.ID] = &clone
	return nil
}

func (r *fakeBookRepo) GetByID(_ context.Context, id uint) (*models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	book, ok := r.books[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *book
	return &clone, nil
}

func (r *fakeBookRepo) GetByISBN(_ context.Context, isbn string) (*models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, book := range r.books {
		if book.ISBN == isbn {
			clone := *book
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeBookRepo) GetByIdentifier(ctx context.Context, identifier string) (*models.Book, error) {
	if id, err := strconv.ParseUint(identifier, 10, 32); err == nil {
		if book, err := r.GetByID(ctx, uint(id)); err == nil {
			return book, nil
		}
	}
	return r.GetByISBN(ctx, identifier)
}

func (r *fakeBookRepo) List(_ context.Context, _ repositories.BookFilter, _, _ int) ([]*models.Book, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Book, 0, len(r.books))
	for _, book := range r.books {
		clone := *book
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookRepo) Update(_ context.Context, book *models.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[book.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *book
	r.books[book.ID] = &clone
	return nil
}

func (r *fakeBookRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.books, id)
	return nil
}

func (r *fakeBookRepo) Genres(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, book := range r.books {
		if book.Genre != "" && !seen[book.Genre] {
			seen[book.Genre] = true
			out = append(out, book.Genre)
		}
	}
	return out, nil
}

func (r *fakeBookRepo) ExistsByISBN(_ context.Context, isbn string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, book := range r.books {
		if book.ISBN == isbn {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBookRepo) DecrementCopies(_ context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	book, ok := r.books[id]
	if !ok || book.CopiesAvailable <= 0 {
		return false, nil
	}
	book.CopiesAvailable--
	return true, nil
}

func (r *fakeBookRepo) IncrementCopies(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	book, ok := r.books[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	book.CopiesAvailable++
	return nil
}

type fakeReaderRepo struct {
	mu      sync.Mutex
	readers map[uint]*models.Reader
	seq     uint
}

func newFakeReaderRepo() *fakeReaderRepo {
	return &fakeReaderRepo{readers: make(map[uint]*models.Reader)}
}

func (r *fakeReaderRepo) Create(_ context.Context, reader *models.Reader) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	reader.ID = r.seq
	clone := *reader
	r.readers[reader.ID] = &clone
	return nil
}

func (r *fakeReaderRepo) GetByID(_ context.Context, id uint) (*models.Reader, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reader, ok := r.readers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *reader
	return &clone, nil
}

func (r *fakeReaderRepo) GetByIdentifier(_ context.Context, identifier string) (*models.Reader, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, err := strconv.ParseUint(identifier, 10, 32); err == nil {
		if reader, ok := r.readers[uint(id)]; ok {
			clone := *reader
			return &clone, nil
		}
	}
	for _, reader := range r.readers {
		if reader.MemberID == identifier || reader.NIC == identifier {
			clone := *reader
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeReaderRepo) List(_ context.Context, _, _ int) ([]*models.Reader, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Reader, 0, len(r.readers))
	for _, reader := range r.readers {
		clone := *reader
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

func (r *fakeReaderRepo) Update(_ context.Context, reader *models.Reader) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.readers[reader.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *reader
	r.readers[reader.ID] = &clone
	return nil
}

func (r *fakeReaderRepo) Deactivate(_ context.Context, id uint, deletedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reader, ok := r.readers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	reader.IsActive = false
	reader.UpdatedBy = deletedBy
	return nil
}

func (r *fakeReaderRepo) ExistsByMemberID(_ context.Context, memberID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reader := range r.readers {
		if reader.MemberID == memberID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReaderRepo) ExistsByNIC(_ context.Context, nic string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reader := range r.readers {
		if reader.NIC == nic {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReaderRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reader := range r.readers {
		if reader.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type fakeLoanRepo struct {
	mu    sync.Mutex
	loans map[uint]*models.Loan
	seq   uint
}

func newFakeLoanRepo() *fakeLoanRepo {
	return &fakeLoanRepo{loans: make(map[uint]*models.Loan)}
}

func (r *fakeLoanRepo) Create(_ context.Context, loan *models.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	loan.ID = r.seq
	clone := *loan
	r.loans[loan.ID] = &clone
	return nil
}

func (r *fakeLoanRepo) GetByID(_ context.Context, id uint) (*models.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loan, ok := r.loans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *loan
	return &clone, nil
}

func (r *fakeLoanRepo) MarkReturned(_ context.Context, id uint, returnDate time.Time, fineAmount float64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loan, ok := r.loans[id]
	if !ok || loan.IsReturned {
		return false, nil
	}
	loan.IsReturned = true
	loan.ReturnDate = &returnDate
	loan.FineAmount = fineAmount
	return true, nil
}

func (r *fakeLoanRepo) ListAll(_ context.Context) ([]*models.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Loan, 0, len(r.loans))
	for _, loan := range r.loans {
		clone := *loan
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeLoanRepo) ListByReader(_ context.Context, readerID uint) ([]*models.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Loan
	for _, loan := range r.loans {
		if loan.ReaderID == readerID {
			clone := *loan
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeLoanRepo) ListByBook(_ context.Context, bookID uint) ([]*models.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Loan
	for _, loan := range r.loans {
		if loan.BookID == bookID {
			clone := *loan
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeLoanRepo) ListOverdue(_ context.Context, now time.Time) ([]*models.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Loan
	for _, loan := range r.loans {
		if !loan.IsReturned && loan.DueDate.Before(now) {
			clone := *loan
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeLoanRepo) ListReturnedOverdue(_ context.Context) ([]*models.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Loan
	for _, loan := range r.loans {
		if loan.IsReturned && loan.ReturnDate != nil && loan.ReturnDate.After(loan.DueDate) {
			clone := *loan
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeLoanRepo) ListDueSoonUnnotified(_ context.Context, now time.Time, lead time.Duration) ([]*models.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := now.Add(lead)
	var out []*models.Loan
	for _, loan := range r.loans {
		if loan.IsReturned || loan.ReminderSent {
			continue
		}
		if loan.DueDate.After(now) && !loan.DueDate.After(cutoff) {
			clone := *loan
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeLoanRepo) MarkReminderSent(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	loan, ok := r.loans[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	loan.ReminderSent = true
	return nil
}

func (r *fakeLoanRepo) CountOutstandingByBook(_ context.Context, bookID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, loan := range r.loans {
		if loan.BookID == bookID && !loan.IsReturned {
			n++
		}
	}
	return n, nil
}

// fakeNotifier records every notification for assertions. With failSends
// set every delivery reports an error, like an unreachable SMTP host.
type fakeNotifier struct {
	mu        sync.Mutex
	failSends bool
	welcomes  []string
	reminders []string
	digests   map[string][]OverdueItem
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{digests: make(map[string][]OverdueItem)}
}

func (n *fakeNotifier) SendWelcome(email, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcomes = append(n.welcomes, email)
	return nil
}

func (n *fakeNotifier) SendReminder(email, name, bookTitle string, dueDate time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failSends {
		return errSendFailed
	}
	n.reminders = append(n.reminders, email)
	return nil
}

func (n *fakeNotifier) SendOverdueBatch(email, name string, items []OverdueItem) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.digests[email] = append(n.digests[email], items...)
	return nil
}

func (n *fakeNotifier) reminderCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reminders)
}
