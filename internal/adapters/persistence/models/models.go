package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Auth tables
// ============================================================

// User represents staff accounts (librarians and staff)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'STAFF'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// User roles
const (
	RoleAdmin     = "ADMIN"
	RoleLibrarian = "LIBRARIAN"
	RoleStaff     = "STAFF"
)

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Catalog tables
// ============================================================

// Book represents a catalog entry with its availability counter.
// Soft-deleted rows are filtered by gorm on every query, so the deleted
// predicate never has to be repeated at call sites.
type Book struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ISBN            string         `gorm:"uniqueIndex;size:50;not null" json:"isbn"`
	Title           string         `gorm:"size:200;not null" json:"title"`
	Author          string         `gorm:"size:100;not null" json:"author"`
	PublishedDate   *time.Time     `gorm:"type:date" json:"published_date"`
	Genre           string         `gorm:"size:50;index" json:"genre"`
	Description     string         `gorm:"type:text" json:"description"`
	CopiesAvailable int            `gorm:"not null;default:1" json:"copies_available"`
	CreatedBy       string         `gorm:"size:50" json:"created_by"`
	UpdatedBy       string         `gorm:"size:50" json:"updated_by"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Book) TableName() string {
	return "books"
}

// Reader represents a registered borrower. Readers are deactivated,
// never hard-deleted.
type Reader struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	MemberID    string         `gorm:"uniqueIndex;size:20;not null" json:"member_id"`
	NIC         string         `gorm:"uniqueIndex;size:20;not null" json:"nic"`
	FullName    string         `gorm:"size:100;not null" json:"full_name"`
	Email       string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Phone       string         `gorm:"size:20" json:"phone"`
	Address     string         `gorm:"size:255" json:"address"`
	DateOfBirth *time.Time     `gorm:"type:date" json:"date_of_birth"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedBy   string         `gorm:"size:50" json:"created_by"`
	UpdatedBy   string         `gorm:"size:50" json:"updated_by"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Reader) TableName() string {
	return "readers"
}

// ============================================================
// Lending ledger
// ============================================================

// Loan is one ledger entry: one reader borrowing one copy of a book.
// Loans are historical records and are never deleted. A loan is mutated
// exactly once, at return time; ReminderSent is the durable marker that
// keeps the due-date reminder at-most-once across sweep runs.
type Loan struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ReaderID     uint       `gorm:"not null;index" json:"reader_id"`
	BookID       uint       `gorm:"not null;index" json:"book_id"`
	LendDate     time.Time  `gorm:"not null" json:"lend_date"`
	DueDate      time.Time  `gorm:"not null;index" json:"due_date"`
	ReturnDate   *time.Time `json:"return_date"`
	IsReturned   bool       `gorm:"not null;default:false;index" json:"is_returned"`
	FineAmount   float64    `gorm:"type:decimal(10,2);not null;default:0" json:"fine_amount"`
	ReminderSent bool       `gorm:"not null;default:false" json:"reminder_sent"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Reader *Reader `gorm:"foreignKey:ReaderID" json:"reader,omitempty"`
	Book   *Book   `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

// LoanResponse DTO
type LoanResponse struct {
	ID         uint       `json:"id"`
	ReaderID   uint       `json:"reader_id"`
	ReaderName string     `json:"reader_name,omitempty"`
	MemberID   string     `json:"member_id,omitempty"`
	BookID     uint       `json:"book_id"`
	BookTitle  string     `json:"book_title,omitempty"`
	ISBN       string     `json:"isbn,omitempty"`
	LendDate   time.Time  `json:"lend_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
	IsReturned bool       `json:"is_returned"`
	FineAmount float64    `json:"fine_amount"`
}

func (l *Loan) ToResponse() *LoanResponse {
	resp := &LoanResponse{
		ID:         l.ID,
		ReaderID:   l.ReaderID,
		BookID:     l.BookID,
		LendDate:   l.LendDate,
		DueDate:    l.DueDate,
		ReturnDate: l.ReturnDate,
		IsReturned: l.IsReturned,
		FineAmount: l.FineAmount,
	}

	if l.Reader != nil {
		resp.ReaderName = l.Reader.FullName
		resp.MemberID = l.Reader.MemberID
	}
	if l.Book != nil {
		resp.BookTitle = l.Book.Title
		resp.ISBN = l.Book.ISBN
	}

	return resp
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Book{},
		&Reader{},
		&Loan{},
	)
}
