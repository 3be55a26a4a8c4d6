package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/picstream/backend/internal/config"
	"github.com/picstream/backend/internal/models"
)

// PresignGrant is one entry of a presign response: the storage key the
// client must commit later, and the URL it uploads the bytes to.
type PresignGrant struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
}

// UploadCommit is one committed upload: the key from a previous presign
// grant plus the display name of the original file.
type UploadCommit struct {
	Key              string `json:"imageKey" binding:"required"`
	OriginalFileName string `json:"originalname"`
}

// ImageService orchestrates the image lifecycle: presigned-upload
// coordination, record creation, the public feed, visibility-checked
// reads, owner-checked deletes and the like set.
type ImageService struct {
	store   ImageStore
	storage ObjectStorage
	cfg     *config.Config
}

func NewImageService(store ImageStore, storage ObjectStorage, cfg *config.Config) *ImageService {
	return &ImageService{
		store:   store,
		storage: storage,
		cfg:     cfg,
	}
}

// PresignUploads generates one storage key and write URL per declared
// content type, in input order. Grants are produced concurrently and the
// call is all-or-nothing: a single failure fails the batch and no grants
// are returned.
func (s *ImageService) PresignUploads(ctx context.Context, caller *models.Identity, contentTypes []string) ([]PresignGrant, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}
	if len(contentTypes) == 0 {
		return nil, fmt.Errorf("%w: contentTypes must be a non-empty array", ErrInvalidInput)
	}

	grants := make([]PresignGrant, len(contentTypes))
	errs := make([]error, len(contentTypes))

	var wg sync.WaitGroup
	for i, contentType := range contentTypes {
		wg.Add(1)
		go func(idx int, ct string) {
			defer wg.Done()

			key, err := GenerateStorageKey(ct)
			if err != nil {
				errs[idx] = err
				return
			}
			url, err := s.storage.PresignPut(ctx, s.cfg.UploadKeyPrefix+key, ct, s.cfg.PresignTTL)
			if err != nil {
				errs[idx] = fmt.Errorf("%w: %v", ErrPresignFailed, err)
				return
			}
			grants[idx] = PresignGrant{Key: key, UploadURL: url}
		}(i, contentType)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return grants, nil
}

// CommitUploads records a batch of uploads the client has already written
// to storage. All records share the caller as owner and the same
// visibility. Creations run concurrently; on failure, siblings that were
// already created are kept (orphaned records are cheap, rollback is not).
func (s *ImageService) CommitUploads(ctx context.Context, caller *models.Identity, commits []UploadCommit, public bool) ([]models.Image, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}
	if len(commits) == 0 {
		return nil, fmt.Errorf("%w: images must be a non-empty array", ErrInvalidInput)
	}
	if len(commits) > s.cfg.UploadMaxBatch {
		return nil, fmt.Errorf("%w: at most %d images per upload", ErrInvalidInput, s.cfg.UploadMaxBatch)
	}
	for _, commit := range commits {
		if strings.TrimSpace(commit.Key) == "" {
			return nil, fmt.Errorf("%w: imageKey is required", ErrInvalidInput)
		}
	}

	records := make([]*models.Image, len(commits))
	errs := make([]error, len(commits))

	var wg sync.WaitGroup
	for i, commit := range commits {
		wg.Add(1)
		go func(idx int, cm UploadCommit) {
			defer wg.Done()

			image := &models.Image{
				Owner: models.OwnerSnapshot{
					ID:       caller.ID,
					Name:     caller.Name,
					Username: caller.Username,
				},
				Public:           public,
				StorageKey:       cm.Key,
				OriginalFileName: cm.OriginalFileName,
			}
			if err := s.store.Create(ctx, image); err != nil {
				errs[idx] = err
				return
			}
			records[idx] = image
		}(i, commit)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	out := make([]models.Image, len(records))
	for i, r := range records {
		out[i] = *r
	}
	return out, nil
}

// Feed returns one page of the public feed: up to the configured page
// size, strictly descending by id, starting below beforeID when it is
// set. An empty page means the end of the feed.
func (s *ImageService) Feed(ctx context.Context, beforeID int64) ([]models.Image, error) {
	return s.store.PublicPage(ctx, beforeID, s.cfg.FeedPageSize)
}

// Get returns one image. Private images are visible to their owner only;
// everyone can read public ones.
func (s *ImageService) Get(ctx context.Context, caller *models.Identity, id int64) (*models.Image, error) {
	image, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !image.Public && (caller == nil || caller.ID != image.Owner.ID) {
		return nil, ErrForbidden
	}
	return image, nil
}

// Delete removes an image owned by the caller and releases its storage
// object. (nil, nil) means the record was already gone — delete is
// idempotent. The storage deletion is best-effort with a bounded timeout;
// the record deletion is the source of truth, so a storage failure is
// logged and swallowed.
func (s *ImageService) Delete(ctx context.Context, caller *models.Identity, id int64) (*models.Image, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}

	image, err := s.store.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrImageNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if image.Owner.ID != caller.ID {
		return nil, ErrForbidden
	}

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if deleted == nil {
		// Lost a race with another delete of the same record.
		return nil, nil
	}

	deleteCtx, cancel := context.WithTimeout(context.Background(), s.cfg.StorageDeleteTimeout)
	defer cancel()
	if err := s.storage.Delete(deleteCtx, s.cfg.UploadKeyPrefix+deleted.StorageKey); err != nil {
		log.Printf("WARN: failed to delete storage object %s%s: %v", s.cfg.UploadKeyPrefix, deleted.StorageKey, err)
	}

	return deleted, nil
}

// Like adds the caller to the image's like set. Calling it again for the
// same user changes nothing.
func (s *ImageService) Like(ctx context.Context, caller *models.Identity, id int64) (*models.Image, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}
	return s.store.AddLike(ctx, id, caller.ID)
}

// Unlike removes the caller from the like set. Unliking an image the
// caller never liked is a no-op, not an error.
func (s *ImageService) Unlike(ctx context.Context, caller *models.Identity, id int64) (*models.Image, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}
	return s.store.RemoveLike(ctx, id, caller.ID)
}
