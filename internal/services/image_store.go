package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/picstream/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ImageStore is the persistence surface for image records. Delete is
// idempotent: deleting an id with no record returns (nil, nil), not an
// error. AddLike and RemoveLike carry set semantics — repeated calls for
// the same user are no-ops.
type ImageStore interface {
	Create(ctx context.Context, image *models.Image) error
	// PublicPage returns up to limit public images with id < beforeID,
	// newest first. beforeID <= 0 means "from the top".
	PublicPage(ctx context.Context, beforeID int64, limit int) ([]models.Image, error)
	ByID(ctx context.Context, id int64) (*models.Image, error)
	Delete(ctx context.Context, id int64) (*models.Image, error)
	AddLike(ctx context.Context, id int64, userID uuid.UUID) (*models.Image, error)
	RemoveLike(ctx context.Context, id int64, userID uuid.UUID) (*models.Image, error)
}

// GormImageStore is the PostgreSQL-backed ImageStore.
type GormImageStore struct {
	db *gorm.DB
}

func NewGormImageStore(db *gorm.DB) *GormImageStore {
	return &GormImageStore{db: db}
}

func (s *GormImageStore) Create(ctx context.Context, image *models.Image) error {
	if err := s.db.WithContext(ctx).Create(image).Error; err != nil {
		return fmt.Errorf("failed to create image record: %w", err)
	}
	image.FillLikedBy()
	return nil
}

func (s *GormImageStore) PublicPage(ctx context.Context, beforeID int64, limit int) ([]models.Image, error) {
	query := s.db.WithContext(ctx).Where("public = ?", true)
	if beforeID > 0 {
		query = query.Where("id < ?", beforeID)
	}

	var images []models.Image
	if err := query.Preload("Likes").Order("id DESC").Limit(limit).Find(&images).Error; err != nil {
		return nil, err
	}
	for i := range images {
		images[i].FillLikedBy()
	}
	return images, nil
}

func (s *GormImageStore) ByID(ctx context.Context, id int64) (*models.Image, error) {
	var image models.Image
	if err := s.db.WithContext(ctx).Preload("Likes").First(&image, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	image.FillLikedBy()
	return &image, nil
}

// Delete removes the record by id and returns it so the caller can release
// the storage object. A missing record is "already deleted".
func (s *GormImageStore) Delete(ctx context.Context, id int64) (*models.Image, error) {
	var deleted *models.Image
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var image models.Image
		if err := tx.Preload("Likes").First(&image, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Where("image_id = ?", id).Delete(&models.ImageLike{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&image).Error; err != nil {
			return err
		}
		image.FillLikedBy()
		deleted = &image
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete image record: %w", err)
	}
	return deleted, nil
}

func (s *GormImageStore) AddLike(ctx context.Context, id int64, userID uuid.UUID) (*models.Image, error) {
	if _, err := s.ByID(ctx, id); err != nil {
		return nil, err
	}
	like := models.ImageLike{ImageID: id, UserID: userID}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
		return nil, fmt.Errorf("failed to add like: %w", err)
	}
	return s.ByID(ctx, id)
}

func (s *GormImageStore) RemoveLike(ctx context.Context, id int64, userID uuid.UUID) (*models.Image, error) {
	if _, err := s.ByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Where("image_id = ? AND user_id = ?", id, userID).
		Delete(&models.ImageLike{}).Error; err != nil {
		return nil, fmt.Errorf("failed to remove like: %w", err)
	}
	return s.ByID(ctx, id)
}
