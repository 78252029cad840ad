package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/beloteo/tournament-engine/storage"
)

// Разрешённые форматы аватаров.
var allowedAvatarTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

type AvatarService interface {
	// UploadAvatar stores the player's avatar under a deterministic key, so a
	// re-upload overwrites the previous asset instead of accumulating copies.
	UploadAvatar(ctx context.Context, playerID int, contentType string, r io.Reader) (*storage.UploadResult, error)

	RemoveAvatar(ctx context.Context, playerID int) error

	// AvatarURL resolves the public URL for a player's avatar key. It does not
	// check existence; a player without an upload resolves to a dead link.
	AvatarURL(playerID int) (string, error)
}

type avatarService struct {
	uploader storage.FileUploader
	logger   *slog.Logger
}

// NewAvatarService принимает nil uploader: тогда все операции возвращают
// ErrAvatarStorageDisabled, и маршруты отвечают 503.
func NewAvatarService(uploader storage.FileUploader, logger *slog.Logger) AvatarService {
	return &avatarService{uploader: uploader, logger: logger}
}

func avatarKey(playerID int) string {
	return fmt.Sprintf("avatars/%d", playerID)
}

func (s *avatarService) UploadAvatar(ctx context.Context, playerID int, contentType string, r io.Reader) (*storage.UploadResult, error) {
	if s.uploader == nil {
		return nil, ErrAvatarStorageDisabled
	}
	if _, ok := allowedAvatarTypes[contentType]; !ok {
		return nil, fmt.Errorf("%w: got %q", ErrAvatarContentType, contentType)
	}

	result, err := s.uploader.Upload(ctx, avatarKey(playerID), contentType, r)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar for player %d: %w", playerID, err)
	}

	s.logger.Info("avatar uploaded",
		slog.Int("player_id", playerID),
		slog.String("key", result.Key),
	)
	return result, nil
}

func (s *avatarService) RemoveAvatar(ctx context.Context, playerID int) error {
	if s.uploader == nil {
		return ErrAvatarStorageDisabled
	}

	if err := s.uploader.Delete(ctx, avatarKey(playerID)); err != nil {
		return fmt.Errorf("failed to delete avatar for player %d: %w", playerID, err)
	}

	s.logger.Info("avatar removed", slog.Int("player_id", playerID))
	return nil
}

func (s *avatarService) AvatarURL(playerID int) (string, error) {
	if s.uploader == nil {
		return "", ErrAvatarStorageDisabled
	}
	return s.uploader.GetPublicURL(avatarKey(playerID)), nil
}
