package models

import (
	"time"

	"github.com/google/uuid"
)

// OwnerSnapshot is the owner identity captured when an image record is
// created. It is a copy, not a reference: renaming the user later does
// not touch existing records.
type OwnerSnapshot struct {
	ID       uuid.UUID `gorm:"type:uuid;not null;index;column:owner_id" json:"id"`
	Name     string    `gorm:"size:120;column:owner_name" json:"name"`
	Username string    `gorm:"size:120;column:owner_username" json:"username"`
}

// Image is a committed upload. The autoincrement ID is creation-monotonic
// and doubles as the feed pagination cursor, so it must stay an integer
// primary key.
type Image struct {
	ID               int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Owner            OwnerSnapshot `gorm:"embedded" json:"user"`
	Public           bool          `gorm:"not null;default:false;index" json:"public"`
	StorageKey       string        `gorm:"size:512;uniqueIndex;not null" json:"key"`
	OriginalFileName string        `gorm:"size:255" json:"original_file_name"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`

	Likes []ImageLike `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE" json:"-"`

	// LikedBy is the like set flattened for API responses, filled from
	// Likes after loading. Always non-nil so it serializes as [].
	LikedBy []string `gorm:"-" json:"liked_by"`
}

// ImageLike is one member of an image's like set. The composite primary
// key makes the at-most-once-per-user invariant a schema property rather
// than a query convention.
type ImageLike struct {
	ImageID   int64     `gorm:"primaryKey;autoIncrement:false"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
}

// FillLikedBy flattens the loaded like rows into LikedBy.
func (i *Image) FillLikedBy() {
	i.LikedBy = make([]string, 0, len(i.Likes))
	for _, l := range i.Likes {
		i.LikedBy = append(i.LikedBy, l.UserID.String())
	}
}

// LikedByUser reports membership in the like set.
func (i *Image) LikedByUser(userID uuid.UUID) bool {
	for _, l := range i.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}
