// Package objectstore хранит оригиналы книг и пользовательские файлы в S3-совместимом хранилище.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/iedcs-server/internal/config"
)

// ErrObjectNotFound объекта с таким ключом нет в бакете
var ErrObjectNotFound = errors.New("object not found")

// Store клиент S3 с привязкой к одному бакету
type Store struct {
	client *s3.Client
	bucket string
}

// New создает клиента по настройкам ObjectStorage. Для minio нужен path-style адрес.
func New(ctx context.Context, cfg config.ObjectStorage) (*Store, error) {
	const op = "objectstore.New"
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return &Store{client: client, bucket: cfg.S3Bucket}, nil
}

// EnsureBucket создает бакет, если его еще нет
func (s *Store) EnsureBucket(ctx context.Context) error {
	const op = "objectstore.EnsureBucket"
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var nf *types.NotFound
	var nb *types.NoSuchBucket
	if !errors.As(err, &nf) && !errors.As(err, &nb) {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Put загружает объект. Тело должно поддерживать Seek, иначе SDK не сможет подписать запрос по http.
func (s *Store) Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) error {
	const op = "objectstore.Put"
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Get открывает объект на чтение, закрыть его должен вызывающий
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	const op = "objectstore.Get"
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return out.Body, nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	const op = "objectstore.Exists"
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if errors.Is(mapError(err), ErrObjectNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Delete удаляет объект. Удаление отсутствующего ключа ошибкой не считается.
func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "objectstore.Delete"
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// BookKey ключ оригинала книги
func BookKey(filename string) string {
	return path.Join("books", uuid.NewString(), path.Base(filename))
}

// UserFileKey ключ пользовательского файла
func UserFileKey(accountID, fileID string) string {
	return path.Join("users", accountID, fileID)
}

func mapError(err error) error {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return ErrObjectNotFound
	}
	return err
}
