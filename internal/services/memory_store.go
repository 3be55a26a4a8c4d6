package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/picstream/backend/internal/models"
)

// MemoryImageStore is an in-process ImageStore used when DB_DRIVER=memory
// (local development without PostgreSQL) and by the test suite. Ids are
// handed out from a monotonically increasing counter, matching the
// autoincrement behavior the feed cursor relies on.
type MemoryImageStore struct {
	mu     sync.RWMutex
	nextID int64
	images map[int64]*models.Image
}

func NewMemoryImageStore() *MemoryImageStore {
	return &MemoryImageStore{nextID: 1, images: make(map[int64]*models.Image)}
}

func (s *MemoryImageStore) Create(ctx context.Context, image *models.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	image.ID = s.nextID
	s.nextID++
	image.CreatedAt = now
	image.UpdatedAt = now

	stored := *image
	stored.Likes = append([]models.ImageLike(nil), image.Likes...)
	s.images[stored.ID] = &stored

	image.FillLikedBy()
	return nil
}

func (s *MemoryImageStore) PublicPage(ctx context.Context, beforeID int64, limit int) ([]models.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	images := make([]models.Image, 0, limit)
	for _, img := range s.images {
		if !img.Public {
			continue
		}
		if beforeID > 0 && img.ID >= beforeID {
			continue
		}
		images = append(images, s.snapshot(img))
	}
	sort.Slice(images, func(i, j int) bool { return images[i].ID > images[j].ID })
	if len(images) > limit {
		images = images[:limit]
	}
	return images, nil
}

func (s *MemoryImageStore) ByID(ctx context.Context, id int64) (*models.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img, ok := s.images[id]
	if !ok {
		return nil, ErrImageNotFound
	}
	out := s.snapshot(img)
	return &out, nil
}

func (s *MemoryImageStore) Delete(ctx context.Context, id int64) (*models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, ok := s.images[id]
	if !ok {
		return nil, nil
	}
	delete(s.images, id)
	out := s.snapshot(img)
	return &out, nil
}

func (s *MemoryImageStore) AddLike(ctx context.Context, id int64, userID uuid.UUID) (*models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, ok := s.images[id]
	if !ok {
		return nil, ErrImageNotFound
	}
	if !img.LikedByUser(userID) {
		img.Likes = append(img.Likes, models.ImageLike{ImageID: id, UserID: userID, CreatedAt: time.Now().UTC()})
		img.UpdatedAt = time.Now().UTC()
	}
	out := s.snapshot(img)
	return &out, nil
}

func (s *MemoryImageStore) RemoveLike(ctx context.Context, id int64, userID uuid.UUID) (*models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, ok := s.images[id]
	if !ok {
		return nil, ErrImageNotFound
	}
	for i, l := range img.Likes {
		if l.UserID == userID {
			img.Likes = append(img.Likes[:i], img.Likes[i+1:]...)
			img.UpdatedAt = time.Now().UTC()
			break
		}
	}
	out := s.snapshot(img)
	return &out, nil
}

// snapshot copies an entry so callers cannot mutate stored state.
func (s *MemoryImageStore) snapshot(img *models.Image) models.Image {
	out := *img
	out.Likes = append([]models.ImageLike(nil), img.Likes...)
	out.FillLikedBy()
	return out
}
