package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"time"

	"bookclub-lms/internal/adapters/persistence/models"
	"bookclub-lms/internal/adapters/persistence/repositories"
	"bookclub-lms/internal/core/domain"

	"gorm.io/gorm"
)

// Reader service errors
var (
	ErrNICTaken           = errors.New("reader with this NIC already exists")
	ErrEmailTaken         = errors.New("reader with this email already exists")
	ErrInvalidNIC         = errors.New("NIC must be valid (e.g., 991234567V or 200012345678)")
	ErrInvalidEmail       = errors.New("email must be valid")
	ErrMemberIDGeneration = errors.New("could not generate a unique member ID")
)

// memberIDGenerateAttempts bounds the collision-retry loop
const memberIDGenerateAttempts = 10

var (
	nicPattern   = regexp.MustCompile(`^\d{9}[vVxX]$|^\d{12}$`)
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
)

// ReaderService handles borrower registration and maintenance
type ReaderService struct {
	readerRepo repositories.ReaderRepository
	notifier   Notifier
}

// NewReaderService creates a new reader service
func NewReaderService(readerRepo repositories.ReaderRepository, notifier Notifier) *ReaderService {
	return &ReaderService{
		readerRepo: readerRepo,
		notifier:   notifier,
	}
}

// CreateReaderInput represents reader registration input
type CreateReaderInput struct {
	FullName    string     `json:"full_name"`
	NIC         string     `json:"nic"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	Address     string     `json:"address,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
}

// Create registers a new reader with a generated member ID and sends the
// welcome email. The email is best-effort and never fails the registration.
func (s *ReaderService) Create(ctx context.Context, input *CreateReaderInput, createdBy string) (*models.Reader, error) {
	if !nicPattern.MatchString(input.NIC) {
		return nil, ErrInvalidNIC
	}
	if !emailPattern.MatchString(input.Email) {
		return nil, ErrInvalidEmail
	}

	exists, err := s.readerRepo.ExistsByNIC(ctx, input.NIC)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrNICTaken
	}

	exists, err = s.readerRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	memberID, err := s.generateMemberID(ctx)
	if err != nil {
		return nil, err
	}

	reader := &models.Reader{
		MemberID:    memberID,
		NIC:         input.NIC,
		FullName:    input.FullName,
		Email:       input.Email,
		Phone:       input.Phone,
		Address:     input.Address,
		DateOfBirth: input.DateOfBirth,
		IsActive:    true,
		CreatedBy:   createdBy,
	}

	if err := s.readerRepo.Create(ctx, reader); err != nil {
		return nil, err
	}

	log.Printf("👤 Reader registered: %s (%s)", reader.FullName, reader.MemberID)

	if s.notifier != nil {
		if err := s.notifier.SendWelcome(reader.Email, reader.FullName); err != nil {
			log.Printf("⚠️ Welcome email to %s failed: %v", reader.Email, err)
		}
	}

	return reader, nil
}

// generateMemberID produces a candidate member ID (M-<year>-<5 digits>) and
// re-rolls on collision, bounded by a retry ceiling
func (s *ReaderService) generateMemberID(ctx context.Context) (string, error) {
	for i := 0; i < memberIDGenerateAttempts; i++ {
		candidate := fmt.Sprintf("M-%d-%05d", time.Now().Year(), 10000+rand.Intn(90000))
		exists, err := s.readerRepo.ExistsByMemberID(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrMemberIDGeneration
}

// GetByIdentifier resolves a reader by ID, member ID or NIC
func (s *ReaderService) GetByIdentifier(ctx context.Context, identifier string) (*models.Reader, error) {
	reader, err := s.readerRepo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReaderNotFound
		}
		return nil, err
	}
	return reader, nil
}

// List lists active readers
func (s *ReaderService) List(ctx context.Context, offset, limit int) ([]*models.Reader, int64, error) {
	return s.readerRepo.List(ctx, offset, limit)
}

// UpdateReaderInput represents reader update input; nil fields are left alone
type UpdateReaderInput struct {
	FullName    *string    `json:"full_name,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Address     *string    `json:"address,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
}

// Update edits a reader record
func (s *ReaderService) Update(ctx context.Context, id uint, input *UpdateReaderInput, updatedBy string) (*models.Reader, error) {
	reader, err := s.readerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReaderNotFound
		}
		return nil, err
	}

	if input.FullName != nil {
		reader.FullName = *input.FullName
	}
	if input.Email != nil {
		if !emailPattern.MatchString(*input.Email) {
			return nil, ErrInvalidEmail
		}
		reader.Email = *input.Email
	}
	if input.Phone != nil {
		reader.Phone = *input.Phone
	}
	if input.Address != nil {
		reader.Address = *input.Address
	}
	if input.DateOfBirth != nil {
		reader.DateOfBirth = input.DateOfBirth
	}
	reader.UpdatedBy = updatedBy

	if err := s.readerRepo.Update(ctx, reader); err != nil {
		return nil, err
	}
	return reader, nil
}

// Deactivate soft deactivates a reader; loan history stays intact
func (s *ReaderService) Deactivate(ctx context.Context, id uint, deactivatedBy string) error {
	if err := s.readerRepo.Deactivate(ctx, id, deactivatedBy); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrReaderNotFound
		}
		return err
	}
	return nil
}
