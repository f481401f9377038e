package services

import (
	"context"
	"log"
	"time"

	"bookclub-lms/internal/adapters/persistence/repositories"
	"bookclub-lms/internal/core/domain"

	"github.com/robfig/cron/v3"
)

// ReminderService runs the background schedules: a periodic sweep that sends
// due-date reminders, and a daily digest for overdue loans. The sweep queries
// loan state fresh on every run, so a timer survives process restarts and a
// loan returned since the last run is never reminded about. The reminder_sent
// marker on the loan keeps each reminder at-most-once across sweeps.
type ReminderService struct {
	loanRepo   repositories.LoanRepository
	notifier   Notifier
	policy     domain.FinePolicy
	sweepSpec  string
	digestSpec string
	cron       *cron.Cron

	now func() time.Time
}

// NewReminderService creates a new reminder service. sweepSpec and digestSpec
// are cron expressions (e.g. "@every 1m" and "0 18 * * *").
func NewReminderService(
	loanRepo repositories.LoanRepository,
	notifier Notifier,
	policy domain.FinePolicy,
	sweepSpec, digestSpec string,
) *ReminderService {
	return &ReminderService{
		loanRepo:   loanRepo,
		notifier:   notifier,
		policy:     policy,
		sweepSpec:  sweepSpec,
		digestSpec: digestSpec,
		now:        time.Now,
	}
}

// Start registers and launches the cron schedules
func (s *ReminderService) Start() error {
	s.cron = cron.New()

	if _, err := s.cron.AddFunc(s.sweepSpec, s.Sweep); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.digestSpec, s.SendOverdueDigest); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("🚀 ReminderService started (sweep %q, digest %q)", s.sweepSpec, s.digestSpec)
	return nil
}

// Stop stops the cron scheduler, waiting for a running sweep to finish
func (s *ReminderService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	log.Println("🛑 ReminderService stopped")
}

// Sweep sends a reminder for every outstanding loan whose due date falls
// within the configured lead window and that has not been reminded yet.
// Loans already past due when first observed get no reminder; the overdue
// digest covers those.
func (s *ReminderService) Sweep() {
	ctx := context.Background()
	now := s.now()

	loans, err := s.loanRepo.ListDueSoonUnnotified(ctx, now, s.policy.ReminderLead)
	if err != nil {
		log.Printf("❌ Reminder sweep query error: %v", err)
		return
	}

	sent := 0
	for _, loan := range loans {
		if loan.Reader == nil || loan.Book == nil {
			continue
		}

		if err := s.notifier.SendReminder(loan.Reader.Email, loan.Reader.FullName, loan.Book.Title, loan.DueDate); err != nil {
			log.Printf("❌ Reminder for loan %d failed: %v", loan.ID, err)
		} else {
			sent++
		}

		// Marked regardless of delivery outcome: reminders are best-effort
		// and at-most-once, retry is the mail layer's concern.
		if err := s.loanRepo.MarkReminderSent(ctx, loan.ID); err != nil {
			log.Printf("❌ Failed to mark reminder sent for loan %d: %v", loan.ID, err)
		}
	}

	if sent > 0 {
		log.Printf("📅 Sent %d due-date reminders", sent)
	}
}

// SendOverdueDigest emails each reader one digest listing all of their
// overdue books
func (s *ReminderService) SendOverdueDigest() {
	ctx := context.Background()

	loans, err := s.loanRepo.ListOverdue(ctx, s.now())
	if err != nil {
		log.Printf("❌ Overdue digest query error: %v", err)
		return
	}

	type readerDigest struct {
		email string
		name  string
		items []OverdueItem
	}
	byReader := make(map[uint]*readerDigest)
	order := make([]uint, 0)

	for _, loan := range loans {
		if loan.Reader == nil || loan.Book == nil {
			continue
		}
		d, ok := byReader[loan.ReaderID]
		if !ok {
			d = &readerDigest{email: loan.Reader.Email, name: loan.Reader.FullName}
			byReader[loan.ReaderID] = d
			order = append(order, loan.ReaderID)
		}
		d.items = append(d.items, OverdueItem{BookTitle: loan.Book.Title, DueDate: loan.DueDate})
	}

	for _, readerID := range order {
		d := byReader[readerID]
		if err := s.notifier.SendOverdueBatch(d.email, d.name, d.items); err != nil {
			log.Printf("❌ Overdue digest for reader %d failed: %v", readerID, err)
		}
	}

	if len(order) > 0 {
		log.Printf("📬 Sent overdue digests to %d readers", len(order))
	}
}
