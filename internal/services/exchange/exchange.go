// Package exchange обмен значениями rd1/rd2 между устройством и сервером.
// Сервер не интерпретирует rd1: он хранит его вместе со своим случайным rd2
// ограниченное время, чтобы клиент мог перечитать текущую пару.
package exchange

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/iedcs-server/internal/cache"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
	"github.com/magabrotheeeer/iedcs-server/internal/services"
	"github.com/magabrotheeeer/iedcs-server/internal/storage"
)

const rd2Size = 32

type DeviceFinder interface {
	GetDeviceByIdentifier(ctx context.Context, accountID, uniqueIdentifier string) (*models.Device, error)
}

type Store interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

type ExchangeService struct {
	devices DeviceFinder
	store   Store
	ttl     time.Duration
	random  io.Reader
	now     func() time.Time
	log     *slog.Logger
}

func NewExchangeService(devices DeviceFinder, store Store, ttl time.Duration, log *slog.Logger) *ExchangeService {
	return &ExchangeService{
		devices: devices,
		store:   store,
		ttl:     ttl,
		random:  rand.Reader,
		now:     time.Now,
		log:     log,
	}
}

func key(accountID, deviceIdentifier string) string {
	return cache.ExchangePrefix + accountID + ":" + deviceIdentifier
}

// Exchange принимает rd1 от устройства текущего пользователя и выдает новый rd2.
// Предыдущая пара для этого устройства перезаписывается.
func (s *ExchangeService) Exchange(ctx context.Context, actor models.Actor, req models.ExchangeRequest) (*models.SecurityExchange, error) {
	const op = "exchange.Exchange"
	_, err := s.devices.GetDeviceByIdentifier(ctx, actor.AccountID, req.DeviceIdentifier)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, services.NewFieldError("device_identifier", "device is not registered"))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	buf := make([]byte, rd2Size)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	record := &models.SecurityExchange{
		AccountID:        actor.AccountID,
		DeviceIdentifier: req.DeviceIdentifier,
		Rd1:              req.Rd1,
		Rd2:              base64.StdEncoding.EncodeToString(buf),
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.ttl),
	}
	if err := s.store.Set(ctx, key(actor.AccountID, req.DeviceIdentifier), record, s.ttl); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("security exchange stored",
		slog.String("account_id", actor.AccountID),
		slog.String("device", req.DeviceIdentifier))
	return record, nil
}

// Current возвращает действующую пару rd1/rd2 устройства или storage.ErrNotFound.
func (s *ExchangeService) Current(ctx context.Context, actor models.Actor, deviceIdentifier string) (*models.SecurityExchange, error) {
	const op = "exchange.Current"
	var record models.SecurityExchange
	found, err := s.store.Get(ctx, key(actor.AccountID, deviceIdentifier), &record)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return &record, nil
}
