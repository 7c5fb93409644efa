// Package userfile личные файлы пользователей: содержимое в объектном хранилище, метаданные в postgres.
package userfile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/iedcs-server/internal/lib/sl"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
	"github.com/magabrotheeeer/iedcs-server/internal/objectstore"
	"github.com/magabrotheeeer/iedcs-server/internal/services"
)

type Repository interface {
	CreateUserFile(ctx context.Context, file models.UserFile) (*models.UserFile, error)
	GetUserFile(ctx context.Context, id string) (*models.UserFile, error)
	ListUserFiles(ctx context.Context, accountID string) ([]*models.UserFile, error)
	RemoveUserFile(ctx context.Context, id string) error
}

type ObjectStore interface {
	Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Upload файл из multipart-запроса
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

type FileService struct {
	repo    Repository
	objects ObjectStore
	log     *slog.Logger
}

func NewFileService(repo Repository, objects ObjectStore, log *slog.Logger) *FileService {
	return &FileService{
		repo:    repo,
		objects: objects,
		log:     log,
	}
}

// Upload сохраняет файл пользователя и считает его sha256.
func (s *FileService) Upload(ctx context.Context, actor models.Actor, upload Upload) (*models.UserFile, error) {
	const op = "userfile.Upload"
	name := strings.TrimSpace(path.Base(upload.Name))
	if name == "" || name == "." || name == "/" {
		return nil, fmt.Errorf("%s: %w", op, services.NewFieldError("file", "file name is required"))
	}

	hash := sha256.New()
	size, err := io.Copy(hash, upload.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := upload.Body.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	id := uuid.NewString()
	key := objectstore.UserFileKey(actor.AccountID, id)
	if err := s.objects.Put(ctx, key, upload.Body, size, contentType); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	file, err := s.repo.CreateUserFile(ctx, models.UserFile{
		ID:          id,
		AccountID:   actor.AccountID,
		Name:        name,
		ContentType: contentType,
		Size:        size,
		Checksum:    hex.EncodeToString(hash.Sum(nil)),
		ObjectKey:   key,
	})
	if err != nil {
		if derr := s.objects.Delete(ctx, key); derr != nil {
			s.log.Warn("failed to delete orphan object", slog.String("key", key), sl.Err(derr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("file uploaded", slog.String("id", id), slog.Int64("size", size))
	return file, nil
}

func (s *FileService) List(ctx context.Context, actor models.Actor) ([]*models.UserFile, error) {
	const op = "userfile.List"
	files, err := s.repo.ListUserFiles(ctx, actor.AccountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return files, nil
}

func (s *FileService) Read(ctx context.Context, actor models.Actor, id string) (*models.UserFile, error) {
	const op = "userfile.Read"
	file, err := s.repo.GetUserFile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !actor.CanAccess(file.AccountID) {
		return nil, fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}
	return file, nil
}

// Open возвращает метаданные и поток содержимого. Поток закрывает вызывающий.
func (s *FileService) Open(ctx context.Context, actor models.Actor, id string) (*models.UserFile, io.ReadCloser, error) {
	const op = "userfile.Open"
	file, err := s.Read(ctx, actor, id)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	body, err := s.objects.Get(ctx, file.ObjectKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return file, body, nil
}

func (s *FileService) Remove(ctx context.Context, actor models.Actor, id string) error {
	const op = "userfile.Remove"
	file, err := s.Read(ctx, actor, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.RemoveUserFile(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.objects.Delete(ctx, file.ObjectKey); err != nil {
		s.log.Warn("failed to delete object", slog.String("key", file.ObjectKey), sl.Err(err))
	}
	return nil
}
