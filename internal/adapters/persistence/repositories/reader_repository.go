package repositories

import (
	"context"
	"errors"
	"strconv"
	"time"

	"bookclub-lms/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// readerRepository implements ReaderRepository
type readerRepository struct {
	db *gorm.DB
}

// NewReaderRepository creates a new reader repository
func NewReaderRepository(db *gorm.DB) ReaderRepository {
	return &readerRepository{db: db}
}

// Create creates a new reader
func (r *readerRepository) Create(ctx context.Context, reader *models.Reader) error {
	return r.db.WithContext(ctx).Create(reader).Error
}

// GetByID gets a reader by ID
func (r *readerRepository) GetByID(ctx context.Context, id uint) (*models.Reader, error) {
	var reader models.Reader
	err := r.db.WithContext(ctx).First(&reader, id).Error
	if err != nil {
		return nil, err
	}
	return &reader, nil
}

// GetByIdentifier resolves a reader by numeric ID, member ID or NIC. The
// id column is only ever compared against all-digit input; matching it
// against an arbitrary string would let MySQL coerce the string to its
// digit prefix and resolve the wrong row. A 12-digit NIC overflows the
// 32-bit parse and goes straight to the string columns.
func (r *readerRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.Reader, error) {
	if id, err := strconv.ParseUint(identifier, 10, 32); err == nil {
		reader, err := r.GetByID(ctx, uint(id))
		if err == nil {
			return reader, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var reader models.Reader
	err := r.db.WithContext(ctx).
		Where("member_id = ? OR nic = ?", identifier, identifier).
		First(&reader).Error
	if err != nil {
		return nil, err
	}
	return &reader, nil
}

// List lists active readers with pagination
func (r *readerRepository) List(ctx context.Context, offset, limit int) ([]*models.Reader, int64, error) {
	var readers []*models.Reader
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Reader{}).Where("is_active = ?", true)
	query.Count(&total)

	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&readers).Error

	return readers, total, err
}

// Update updates a reader
func (r *readerRepository) Update(ctx context.Context, reader *models.Reader) error {
	return r.db.WithContext(ctx).Save(reader).Error
}

// Deactivate soft deactivates a reader, keeping the row for loan history
func (r *readerRepository) Deactivate(ctx context.Context, id uint, deletedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Reader{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_by": deletedBy,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ExistsByMemberID checks member ID uniqueness
func (r *readerRepository) ExistsByMemberID(ctx context.Context, memberID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reader{}).
		Where("member_id = ?", memberID).
		Count(&count).Error
	return count > 0, err
}

// ExistsByNIC checks NIC uniqueness
func (r *readerRepository) ExistsByNIC(ctx context.Context, nic string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reader{}).
		Where("nic = ?", nic).
		Count(&count).Error
	return count > 0, err
}

// ExistsByEmail checks email uniqueness
func (r *readerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reader{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}
