// Package device реестр клиентских устройств пользователей.
package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/iedcs-server/internal/events"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/sl"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
	"github.com/magabrotheeeer/iedcs-server/internal/services"
	"github.com/magabrotheeeer/iedcs-server/internal/storage"
)

type Repository interface {
	CreateDevice(ctx context.Context, device models.Device) (*models.Device, error)
	GetDevice(ctx context.Context, id int) (*models.Device, error)
	GetDeviceByIdentifier(ctx context.Context, accountID, uniqueIdentifier string) (*models.Device, error)
	ListDevices(ctx context.Context, accountID string, limit, offset int) ([]*models.Device, error)
	RemoveDevice(ctx context.Context, id int) error
}

type DeviceService struct {
	repo      Repository
	publisher events.Publisher
	log       *slog.Logger
}

func NewDeviceService(repo Repository, publisher events.Publisher, log *slog.Logger) *DeviceService {
	return &DeviceService{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// Register регистрирует устройство текущего пользователя, ip берется из запроса.
// Повторная регистрация того же идентификатора отклоняется.
func (s *DeviceService) Register(ctx context.Context, actor models.Actor, req models.DeviceRequest, ip string) (*models.Device, error) {
	const op = "device.Register"
	device, err := s.repo.CreateDevice(ctx, models.Device{
		AccountID:        actor.AccountID,
		UniqueIdentifier: strings.TrimSpace(req.UniqueIdentifier),
		CPUModel:         req.CPUModel,
		OpSystem:         req.OpSystem,
		IPAddress:        ip,
	})
	if errors.Is(err, storage.ErrAlreadyExists) {
		return nil, fmt.Errorf("%s: %w", op, services.NewFieldError("unique_identifier", "device with this identifier is already registered"))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("device registered", slog.Int("id", device.ID), slog.String("account_id", actor.AccountID))

	event := events.DeviceRegistered{
		DeviceID:         device.ID,
		AccountID:        device.AccountID,
		UniqueIdentifier: device.UniqueIdentifier,
		At:               time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, rabbitmq.DeviceRegistered, event); err != nil {
		s.log.Warn("failed to publish event", slog.String("key", rabbitmq.DeviceRegistered), sl.Err(err))
	}
	return device, nil
}

func (s *DeviceService) Read(ctx context.Context, actor models.Actor, id int) (*models.Device, error) {
	const op = "device.Read"
	device, err := s.repo.GetDevice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !actor.CanAccess(device.AccountID) {
		return nil, fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}
	return device, nil
}

// Retrieve ищет устройство текущего пользователя по его уникальному идентификатору
func (s *DeviceService) Retrieve(ctx context.Context, actor models.Actor, uniqueIdentifier string) (*models.Device, error) {
	const op = "device.Retrieve"
	device, err := s.repo.GetDeviceByIdentifier(ctx, actor.AccountID, uniqueIdentifier)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return device, nil
}

func (s *DeviceService) List(ctx context.Context, actor models.Actor, limit, offset int) ([]*models.Device, error) {
	const op = "device.List"
	accountID := actor.AccountID
	if actor.IsAdmin() {
		accountID = ""
	}
	devices, err := s.repo.ListDevices(ctx, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return devices, nil
}

func (s *DeviceService) Remove(ctx context.Context, actor models.Actor, id int) error {
	const op = "device.Remove"
	if _, err := s.Read(ctx, actor, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.RemoveDevice(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("device removed", slog.Int("id", id))
	return nil
}
