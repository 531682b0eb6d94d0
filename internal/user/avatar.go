package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
)

var ErrStorageDisabled = errors.New("avatar storage is not configured")

// AvatarUploader stores an image and returns a URL clients can display.
type AvatarUploader interface {
	Upload(ctx context.Context, body io.Reader, key, contentType string) (string, error)
}

// AvatarService replaces a user's avatar image.
type AvatarService struct {
	repo      *Repository
	uploader  AvatarUploader
	keyPrefix string
}

// NewAvatarService returns a service that rejects uploads when uploader is nil.
func NewAvatarService(repo *Repository, uploader AvatarUploader, keyPrefix string) *AvatarService {
	return &AvatarService{repo: repo, uploader: uploader, keyPrefix: keyPrefix}
}

// AvatarKey is the object key of a user's avatar. One object per user, overwritten on each upload.
func (s *AvatarService) AvatarKey(u *User) string {
	return path.Join(s.keyPrefix, u.ID.String())
}

// Update uploads body and points the user's avatar at the stored object.
// Only the avatar column is written; u may be older than the stored row.
func (s *AvatarService) Update(ctx context.Context, u *User, body io.Reader, contentType string) (*User, error) {
	if s.uploader == nil {
		return nil, ErrStorageDisabled
	}

	url, err := s.uploader.Upload(ctx, body, s.AvatarKey(u), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	updatedAt, err := s.repo.UpdateAvatarURL(ctx, u.ID, url)
	if err != nil {
		return nil, fmt.Errorf("failed to save avatar url: %w", err)
	}

	updated := *u
	updated.AvatarURL = &url
	updated.UpdatedAt = updatedAt
	return &updated, nil
}
