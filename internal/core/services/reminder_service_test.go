package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookclub-lms/internal/adapters/persistence/models"
	"bookclub-lms/internal/core/domain"
)

type reminderFixture struct {
	service  *ReminderService
	loanRepo *fakeLoanRepo
	notifier *fakeNotifier
	clock    *time.Time
}

func newReminderFixture(t *testing.T) *reminderFixture {
	t.Helper()

	loanRepo := newFakeLoanRepo()
	notifier := newFakeNotifier()
	policy := domain.FastPolicy()

	service := NewReminderService(loanRepo, notifier, policy, "@every 1m", "0 18 * * *")

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	return &reminderFixture{
		service:  service,
		loanRepo: loanRepo,
		notifier: notifier,
		clock:    &now,
	}
}

// addLoan stores a loan due at the given offset from now, with the
// relations the sweep needs preloaded.
func (f *reminderFixture) addLoan(t *testing.T, email string, dueIn time.Duration, returned bool) *models.Loan {
	t.Helper()
	loan := &models.Loan{
		ReaderID:   1,
		BookID:     1,
		LendDate:   f.clock.Add(-4 * time.Minute),
		DueDate:    f.clock.Add(dueIn),
		IsReturned: returned,
		Reader:     &models.Reader{ID: 1, MemberID: "M-2026-10001", FullName: "Nimal Perera", Email: email, IsActive: true},
		Book:       &models.Book{ID: 1, ISBN: "ISBN-1700000000000-1234", Title: "The Go Programming Language"},
	}
	require.NoError(t, f.loanRepo.Create(context.Background(), loan))
	return loan
}

func TestSweep(t *testing.T) {
	t.Run("reminds loans inside the lead window once", func(t *testing.T) {
		f := newReminderFixture(t)
		loan := f.addLoan(t, "nimal@example.com", 30*time.Second, false)

		f.service.Sweep()
		assert.Equal(t, 1, f.notifier.reminderCount())

		stored, _ := f.loanRepo.GetByID(context.Background(), loan.ID)
		assert.True(t, stored.ReminderSent)

		// The next sweep must not repeat the reminder.
		f.service.Sweep()
		assert.Equal(t, 1, f.notifier.reminderCount())
	})

	t.Run("a failed delivery still consumes the reminder", func(t *testing.T) {
		f := newReminderFixture(t)
		f.notifier.failSends = true
		loan := f.addLoan(t, "unreachable@example.com", 30*time.Second, false)

		f.service.Sweep()

		// At-most-once holds even when the sink errors: the marker is set
		// and a later sweep does not retry the send.
		stored, _ := f.loanRepo.GetByID(context.Background(), loan.ID)
		assert.True(t, stored.ReminderSent)

		f.notifier.failSends = false
		f.service.Sweep()
		assert.Zero(t, f.notifier.reminderCount())
	})

	t.Run("skips loans outside the lead window", func(t *testing.T) {
		f := newReminderFixture(t)
		f.addLoan(t, "far@example.com", time.Hour, false)

		f.service.Sweep()
		assert.Zero(t, f.notifier.reminderCount())
	})

	t.Run("skips loans already past due", func(t *testing.T) {
		f := newReminderFixture(t)
		f.addLoan(t, "late@example.com", -time.Minute, false)

		f.service.Sweep()
		assert.Zero(t, f.notifier.reminderCount())
	})

	t.Run("a return before the sweep suppresses the reminder", func(t *testing.T) {
		f := newReminderFixture(t)
		f.addLoan(t, "done@example.com", 30*time.Second, true)

		f.service.Sweep()
		assert.Zero(t, f.notifier.reminderCount())
	})

	t.Run("late restart catches pending reminders", func(t *testing.T) {
		// A loan created before downtime is still picked up by the first
		// sweep after restart, as long as it has not passed due.
		f := newReminderFixture(t)
		loan := f.addLoan(t, "pending@example.com", 45*time.Second, false)

		*f.clock = f.clock.Add(10 * time.Second)
		f.service.Sweep()
		assert.Equal(t, 1, f.notifier.reminderCount())

		stored, _ := f.loanRepo.GetByID(context.Background(), loan.ID)
		assert.True(t, stored.ReminderSent)
	})
}

func TestSendOverdueDigest(t *testing.T) {
	f := newReminderFixture(t)

	// Two overdue loans for one reader, one for another, one on time.
	f.addLoan(t, "a@example.com", -time.Hour, false)
	f.addLoan(t, "a@example.com", -30*time.Minute, false)
	require.NoError(t, f.loanRepo.Create(context.Background(), &models.Loan{
		ReaderID: 2,
		BookID:   1,
		LendDate: f.clock.Add(-2 * time.Hour),
		DueDate:  f.clock.Add(-time.Minute),
		Reader:   &models.Reader{ID: 2, MemberID: "M-2026-10002", FullName: "Kamala Silva", Email: "b@example.com", IsActive: true},
		Book:     &models.Book{ID: 1, Title: "The Go Programming Language"},
	}))
	f.addLoan(t, "ontime@example.com", time.Hour, false)

	f.service.SendOverdueDigest()

	assert.Len(t, f.notifier.digests["a@example.com"], 2, "one digest lists both overdue books")
	assert.Len(t, f.notifier.digests["b@example.com"], 1)
	assert.NotContains(t, f.notifier.digests, "ontime@example.com")
}
