package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"estatedesk/internal/domain"
	applog "estatedesk/internal/log"
	"estatedesk/internal/repos"
	"estatedesk/internal/storage"
)

// allowed maps accepted extensions to the MIME type the content must sniff as.
var allowed = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
}

var unsafeName = regexp.MustCompile(`[^a-z0-9_-]+`)

type UploadService struct {
	Listings *repos.ListingRepo
	Images   *repos.ImageRepo
	Store    storage.Store
	MaxBytes int64
	MaxFiles int
	now      func() time.Time
}

func NewUploadService(listings *repos.ListingRepo, images *repos.ImageRepo, store storage.Store, maxBytes int64, maxFiles int) *UploadService {
	return &UploadService{Listings: listings, Images: images, Store: store, MaxBytes: maxBytes, MaxFiles: maxFiles, now: time.Now}
}

type checkedBlob struct {
	key         string
	contentType string
	data        []byte
}

// AttachImages stores a batch of photos for a listing. Every file is checked
// before anything is written; a failure later in the batch removes what was
// already stored.
func (s *UploadService) AttachImages(ctx context.Context, auth domain.AuthContext, listingID string, blobs []domain.Blob) ([]domain.Image, error) {
	if err := auth.Require(); err != nil {
		return nil, err
	}
	ok, err := s.Listings.Exists(ctx, listingID)
	if err != nil {
		return nil, domain.Storage("attach images", err)
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	if len(blobs) == 0 {
		return nil, domain.NewValidationError("images", "choose at least one file")
	}
	if s.MaxFiles > 0 && len(blobs) > s.MaxFiles {
		return nil, domain.NewValidationError("images", fmt.Sprintf("at most %d files per upload", s.MaxFiles))
	}

	checked := make([]checkedBlob, 0, len(blobs))
	for _, b := range blobs {
		c, err := s.check(listingID, b)
		if err != nil {
			return nil, err
		}
		checked = append(checked, c)
	}

	var stored []string
	cleanup := func() {
		for _, k := range stored {
			if err := s.Store.Delete(ctx, k); err != nil {
				applog.Background("error", "upload.cleanup", err, map[string]any{"key": k})
			}
		}
	}
	ts := domain.Timestamp(s.now())
	rows := make([]domain.Image, 0, len(checked))
	for _, c := range checked {
		if err := s.Store.Put(ctx, c.key, bytes.NewReader(c.data), int64(len(c.data)), c.contentType); err != nil {
			cleanup()
			return nil, domain.Storage("store image", err)
		}
		stored = append(stored, c.key)
		rows = append(rows, domain.Image{ID: uuid.NewString(), FilePath: c.key, CreatedAt: ts})
	}

	out, err := s.Images.AddBatch(ctx, listingID, rows)
	if err != nil {
		cleanup()
		return nil, domain.Storage("attach images", err)
	}
	return out, nil
}

func (s *UploadService) check(listingID string, b domain.Blob) (checkedBlob, error) {
	name := path.Base(strings.ReplaceAll(b.Name, `\`, "/"))
	ext := strings.ToLower(path.Ext(name))
	want, ok := allowed[ext]
	if !ok {
		return checkedBlob{}, fmt.Errorf("%s: %w", name, domain.ErrUnsupportedFile)
	}
	if len(b.Data) == 0 {
		return checkedBlob{}, fmt.Errorf("%s: empty file: %w", name, domain.ErrUnsupportedFile)
	}
	if s.MaxBytes > 0 && int64(len(b.Data)) > s.MaxBytes {
		return checkedBlob{}, fmt.Errorf("%s: %w", name, domain.ErrFileTooLarge)
	}
	if mt := mimetype.Detect(b.Data); !mt.Is(want) {
		return checkedBlob{}, fmt.Errorf("%s: content is %s: %w", name, mt.String(), domain.ErrUnsupportedFile)
	}
	key, err := storageKey(listingID, name, ext)
	if err != nil {
		return checkedBlob{}, domain.Storage("name image", err)
	}
	return checkedBlob{key: key, contentType: want, data: b.Data}, nil
}

var randRead = rand.Read

// storageKey is <listing_id>/<sanitised-base>-<8 hex>.<ext>.
func storageKey(listingID, name, ext string) (string, error) {
	base := strings.ToLower(strings.TrimSuffix(name, path.Ext(name)))
	base = strings.Trim(unsafeName.ReplaceAllString(base, "-"), "-")
	if len(base) > 40 {
		base = strings.Trim(base[:40], "-")
	}
	if base == "" {
		base = "photo"
	}
	suffix := make([]byte, 4)
	if _, err := randRead(suffix); err != nil {
		return "", err
	}
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	return listingID + "/" + base + "-" + hex.EncodeToString(suffix) + ext, nil
}

// RemoveImage deletes one image row, then its file. A second call reports ErrNotFound.
func (s *UploadService) RemoveImage(ctx context.Context, auth domain.AuthContext, imageID string) (*domain.Image, error) {
	if err := auth.Require(); err != nil {
		return nil, err
	}
	im, err := s.Images.Get(ctx, imageID)
	if err != nil {
		return nil, domain.Storage("remove image", err)
	}
	if err := s.Images.Delete(ctx, imageID); err != nil {
		return nil, domain.Storage("remove image", err)
	}
	if err := s.Store.Delete(ctx, im.FilePath); err != nil {
		applog.Background("error", "image.delete.file", err, map[string]any{"image_id": imageID, "key": im.FilePath})
	}
	return im, nil
}
