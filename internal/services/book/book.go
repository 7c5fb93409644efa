// Package book каталог книг: метаданные в postgres, оригиналы в объектном хранилище,
// карточки в redis и тексты в LRU-кеше процесса.
package book

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/magabrotheeeer/iedcs-server/internal/cache"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/sl"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
	"github.com/magabrotheeeer/iedcs-server/internal/objectstore"
	"github.com/magabrotheeeer/iedcs-server/internal/services"
)

const (
	cacheTTL = time.Hour
	// maxContentSize ограничивает размер текста, который отдается через get_book
	maxContentSize = 32 << 20
)

// Repository методы хранилища каталога
type Repository interface {
	CreateBook(ctx context.Context, book models.Book) (*models.Book, error)
	GetBook(ctx context.Context, identifier string) (*models.Book, error)
	ListBooks(ctx context.Context, limit, offset int) ([]*models.Book, error)
	UpdateBook(ctx context.Context, book models.Book) (*models.Book, error)
	RemoveBook(ctx context.Context, identifier string) error
	AccountOwnsBook(ctx context.Context, accountID, identifier string) (bool, error)
}

type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// ObjectStore хранилище оригиналов книг
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Upload загруженный в запросе файл оригинала
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

type BookService struct {
	repo    Repository
	cache   Cache
	objects ObjectStore
	texts   *lru.Cache[string, string]
	log     *slog.Logger
}

// NewBookService создает сервис; contentCacheSize задает число текстов в LRU.
func NewBookService(repo Repository, cache Cache, objects ObjectStore, contentCacheSize int, log *slog.Logger) (*BookService, error) {
	const op = "book.NewBookService"
	if contentCacheSize <= 0 {
		contentCacheSize = 1
	}
	texts, err := lru.New[string, string](contentCacheSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &BookService{
		repo:    repo,
		cache:   cache,
		objects: objects,
		texts:   texts,
		log:     log,
	}, nil
}

func cacheKey(identifier string) string {
	return cache.BookPrefix + identifier
}

func parseProductionDate(value string) (models.Date, error) {
	date, err := time.Parse(models.ProductionDateLayout, strings.TrimSpace(value))
	if err != nil {
		return models.Date{}, services.NewFieldError("production_date", "date has wrong format, use YYYY-MM-DD")
	}
	return models.Date{Time: date}, nil
}

// resolveOriginal возвращает ключ оригинала: загружает новый файл или проверяет существующий ключ.
// uploaded сообщает, что объект создан в этом вызове.
func (s *BookService) resolveOriginal(ctx context.Context, ref string, upload *Upload) (key string, uploaded bool, err error) {
	if upload != nil {
		key = objectstore.BookKey(upload.Filename)
		if err := s.objects.Put(ctx, key, upload.Body, upload.Size, upload.ContentType); err != nil {
			return "", false, err
		}
		return key, true, nil
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false, services.NewFieldError("original_file", "this field is required")
	}
	ok, err := s.objects.Exists(ctx, ref)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, services.NewFieldError("original_file", "file does not exist")
	}
	return ref, false, nil
}

// Create добавляет книгу в каталог. Идентификатор генерируется хранилищем.
func (s *BookService) Create(ctx context.Context, req models.BookRequest, upload *Upload) (*models.Book, error) {
	const op = "book.Create"
	date, err := parseProductionDate(req.ProductionDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	key, uploaded, err := s.resolveOriginal(ctx, req.OriginalFile, upload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.repo.CreateBook(ctx, models.Book{
		Name:           strings.TrimSpace(req.Name),
		Author:         strings.TrimSpace(req.Author),
		ProductionDate: date,
		OriginalFile:   key,
	})
	if err != nil {
		if uploaded {
			s.dropObject(ctx, key)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("book created", slog.String("identifier", created.Identifier))

	if err := s.cache.Set(ctx, cacheKey(created.Identifier), created, cacheTTL); err != nil {
		s.log.Warn("failed to cache book", slog.String("identifier", created.Identifier), sl.Err(err))
	}
	return created, nil
}

// Read возвращает книгу, сначала из redis.
func (s *BookService) Read(ctx context.Context, identifier string) (*models.Book, error) {
	const op = "book.Read"
	var cached models.Book
	found, err := s.cache.Get(ctx, cacheKey(identifier), &cached)
	if err != nil {
		s.log.Warn("failed to read book from cache", slog.String("identifier", identifier), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	book, err := s.repo.GetBook(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, cacheKey(identifier), book, cacheTTL); err != nil {
		s.log.Warn("failed to cache book", slog.String("identifier", identifier), sl.Err(err))
	}
	return book, nil
}

func (s *BookService) List(ctx context.Context, limit, offset int) ([]*models.Book, error) {
	const op = "book.List"
	books, err := s.repo.ListBooks(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return books, nil
}

// Update заменяет метаданные книги. Без нового файла и без original_file оригинал остается прежним.
func (s *BookService) Update(ctx context.Context, identifier string, req models.BookRequest, upload *Upload) (*models.Book, error) {
	const op = "book.Update"
	current, err := s.repo.GetBook(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	date, err := parseProductionDate(req.ProductionDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	key, uploaded := current.OriginalFile, false
	if upload != nil || (req.OriginalFile != "" && req.OriginalFile != current.OriginalFile) {
		key, uploaded, err = s.resolveOriginal(ctx, req.OriginalFile, upload)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	updated, err := s.repo.UpdateBook(ctx, models.Book{
		Identifier:     identifier,
		Name:           strings.TrimSpace(req.Name),
		Author:         strings.TrimSpace(req.Author),
		ProductionDate: date,
		OriginalFile:   key,
	})
	if err != nil {
		if uploaded {
			s.dropObject(ctx, key)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate(ctx, identifier, current.OriginalFile)
	if uploaded {
		s.dropObject(ctx, current.OriginalFile)
	}
	return updated, nil
}

// Remove удаляет книгу и ее оригинал. Книгу из заказа удалить нельзя.
func (s *BookService) Remove(ctx context.Context, identifier string) error {
	const op = "book.Remove"
	current, err := s.repo.GetBook(ctx, identifier)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.RemoveBook(ctx, identifier); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, identifier, current.OriginalFile)
	s.dropObject(ctx, current.OriginalFile)
	s.log.Info("book removed", slog.String("identifier", identifier))
	return nil
}

// Content отдает текст книги. Администратору доступна любая книга, остальным только из своих заказов.
func (s *BookService) Content(ctx context.Context, actor models.Actor, identifier string) (*models.BookContent, error) {
	const op = "book.Content"
	book, err := s.Read(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !actor.IsAdmin() {
		owns, err := s.repo.AccountOwnsBook(ctx, actor.AccountID, identifier)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !owns {
			return nil, fmt.Errorf("%s: %w", op, services.ErrBookNotOwned)
		}
	}

	text, ok := s.texts.Get(book.OriginalFile)
	if !ok {
		text, err = s.load(ctx, book.OriginalFile)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.texts.Add(book.OriginalFile, text)
	}
	return &models.BookContent{
		Identifier: book.Identifier,
		Name:       book.Name,
		Author:     book.Author,
		Content:    text,
	}, nil
}

func (s *BookService) load(ctx context.Context, key string) (string, error) {
	rc, err := s.objects.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			s.log.Warn("failed to close object", slog.String("key", key), sl.Err(cerr))
		}
	}()
	data, err := io.ReadAll(io.LimitReader(rc, maxContentSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxContentSize {
		return "", errors.New("book content is too large")
	}
	return string(data), nil
}

func (s *BookService) invalidate(ctx context.Context, identifier, key string) {
	if err := s.cache.Invalidate(ctx, cacheKey(identifier)); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("identifier", identifier), sl.Err(err))
	}
	s.texts.Remove(key)
}

func (s *BookService) dropObject(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.objects.Delete(ctx, key); err != nil {
		s.log.Warn("failed to delete object", slog.String("key", key), sl.Err(err))
	}
}
