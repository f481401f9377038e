package services

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
	"time"
)

// OverdueItem is one line of an overdue digest email
type OverdueItem struct {
	BookTitle string
	DueDate   time.Time
}

// Notifier is the outbound notification sink. Implementations are
// fire-and-forget: callers never fail a lend or return because an email
// could not be sent.
type Notifier interface {
	SendWelcome(email, name string) error
	SendReminder(email, name, bookTitle string, dueDate time.Time) error
	SendOverdueBatch(email, name string, items []OverdueItem) error
}

// NotificationService sends emails over SMTP. Disabled (no-op) when the
// SMTP environment is not configured, so local setups run without a
// mail server.
type NotificationService struct {
	host     string
	port     string
	username string
	password string
	from     string
	enabled  bool
}

// NewNotificationService creates a new notification service from the
// SMTP_* environment
func NewNotificationService() *NotificationService {
	host := os.Getenv("SMTP_HOST")
	s := &NotificationService{
		host:     host,
		port:     getEnvDefault("SMTP_PORT", "587"),
		username: os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASS"),
		from:     getEnvDefault("SMTP_FROM", "Book Club <noreply@bookclub.local>"),
		enabled:  host != "",
	}
	if !s.enabled {
		log.Println("⚠️ SMTP_HOST not set, email notifications disabled")
	}
	return s
}

// IsEnabled reports whether emails will actually be sent
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

// SendWelcome sends the welcome email to a freshly registered reader
func (s *NotificationService) SendWelcome(email, name string) error {
	body := fmt.Sprintf(
		"Dear %s,\r\n\r\nWelcome to our Book Club! We're excited to have you as a member.\r\n\r\nHappy reading!\r\nThe Book Club Team\r\n",
		name,
	)
	return s.send(email, "Welcome to the Book Club 📚", body)
}

// SendReminder sends a due-date reminder for a single outstanding loan
func (s *NotificationService) SendReminder(email, name, bookTitle string, dueDate time.Time) error {
	body := fmt.Sprintf(
		"Dear %s,\r\n\r\nThis is a reminder that \"%s\" is due back on %s.\r\nPlease return it on time to avoid a fine.\r\n\r\nThe Book Club Team\r\n",
		name, bookTitle, dueDate.Format("02 Jan 2006 15:04"),
	)
	return s.send(email, "Your book is due soon", body)
}

// SendOverdueBatch sends one digest email listing all of a reader's
// overdue books
func (s *NotificationService) SendOverdueBatch(email, name string, items []OverdueItem) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\r\n\r\nThe following books are overdue:\r\n\r\n", name)
	for _, item := range items {
		fmt.Fprintf(&b, "  - %s (was due %s)\r\n", item.BookTitle, item.DueDate.Format("02 Jan 2006 15:04"))
	}
	b.WriteString("\r\nPlease return them as soon as possible.\r\n\r\nThe Book Club Team\r\n")
	return s.send(email, "Overdue books", b.String())
}

// send delivers a single plain-text email. Errors are logged here as well
// as returned, since most callers deliberately ignore them.
func (s *NotificationService) send(to, subject, body string) error {
	if !s.enabled {
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", s.from, to, subject, body)

	addr := s.host + ":" + s.port
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg)); err != nil {
		log.Printf("❌ Failed to send email to %s: %v", to, err)
		return err
	}
	return nil
}

// getEnvDefault gets an environment variable with a default value
func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
