package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/iedcs-server/internal/events"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
	"github.com/magabrotheeeer/iedcs-server/internal/services"
	"github.com/magabrotheeeer/iedcs-server/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateDevice(ctx context.Context, device models.Device) (*models.Device, error) {
	args := m.Called(ctx, device)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Device), args.Error(1)
}

func (m *RepoMock) GetDevice(ctx context.Context, id int) (*models.Device, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Device), args.Error(1)
}

func (m *RepoMock) GetDeviceByIdentifier(ctx context.Context, accountID, uniqueIdentifier string) (*models.Device, error) {
	args := m.Called(ctx, accountID, uniqueIdentifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Device), args.Error(1)
}

func (m *RepoMock) ListDevices(ctx context.Context, accountID string, limit, offset int) ([]*models.Device, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Device), args.Error(1)
}

func (m *RepoMock) RemoveDevice(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, payload any) error {
	return m.Called(ctx, routingKey, payload).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var (
	reader   = models.Actor{AccountID: "acc-1", Role: models.RoleUser}
	stranger = models.Actor{AccountID: "acc-2", Role: models.RoleUser}
	admin    = models.Actor{AccountID: "adm-1", Role: models.RoleAdmin}
)

func TestDeviceService_Register(t *testing.T) {
	req := models.DeviceRequest{UniqueIdentifier: " dev-42 ", CPUModel: "arm64", OpSystem: "linux"}
	want := models.Device{AccountID: "acc-1", UniqueIdentifier: "dev-42", CPUModel: "arm64", OpSystem: "linux", IPAddress: "10.0.0.7"}
	created := &models.Device{ID: 3, AccountID: "acc-1", UniqueIdentifier: "dev-42"}

	t.Run("success", func(t *testing.T) {
		repo := new(RepoMock)
		pub := new(PublisherMock)
		repo.On("CreateDevice", mock.Anything, want).Return(created, nil).Once()
		pub.On("Publish", mock.Anything, "device.registered", mock.MatchedBy(func(e events.DeviceRegistered) bool {
			return e.DeviceID == 3 && e.UniqueIdentifier == "dev-42"
		})).Return(nil).Once()
		svc := NewDeviceService(repo, pub, newNoopLogger())

		got, err := svc.Register(context.Background(), reader, req, "10.0.0.7")
		require.NoError(t, err)
		assert.Equal(t, created, got)
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("duplicate", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("CreateDevice", mock.Anything, want).
			Return(nil, fmt.Errorf("storage.CreateDevice: %w", storage.ErrAlreadyExists)).Once()
		svc := NewDeviceService(repo, events.NopPublisher{}, newNoopLogger())

		_, err := svc.Register(context.Background(), reader, req, "10.0.0.7")
		var fe *services.FieldError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "unique_identifier", fe.Field)
	})
}

func TestDeviceService_ReadAndRemove(t *testing.T) {
	device := &models.Device{ID: 3, AccountID: "acc-1"}

	tests := []struct {
		name    string
		actor   models.Actor
		wantErr error
	}{
		{name: "owner", actor: reader},
		{name: "admin", actor: admin},
		{name: "stranger", actor: stranger, wantErr: services.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			repo.On("GetDevice", mock.Anything, 3).Return(device, nil)
			if tt.wantErr == nil {
				repo.On("RemoveDevice", mock.Anything, 3).Return(nil).Once()
			}
			svc := NewDeviceService(repo, events.NopPublisher{}, newNoopLogger())

			got, err := svc.Read(context.Background(), tt.actor, 3)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				assert.ErrorIs(t, svc.Remove(context.Background(), tt.actor, 3), tt.wantErr)
				repo.AssertNotCalled(t, "RemoveDevice", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, device, got)
			assert.NoError(t, svc.Remove(context.Background(), tt.actor, 3))
			repo.AssertExpectations(t)
		})
	}
}

func TestDeviceService_Retrieve(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetDeviceByIdentifier", mock.Anything, "acc-1", "dev-42").Return(&models.Device{ID: 3}, nil).Once()
	repo.On("GetDeviceByIdentifier", mock.Anything, "acc-1", "dev-0").Return(nil, storage.ErrNotFound).Once()
	svc := NewDeviceService(repo, events.NopPublisher{}, newNoopLogger())

	got, err := svc.Retrieve(context.Background(), reader, "dev-42")
	require.NoError(t, err)
	assert.Equal(t, 3, got.ID)

	_, err = svc.Retrieve(context.Background(), reader, "dev-0")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeviceService_List(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListDevices", mock.Anything, "acc-1", 10, 0).Return([]*models.Device{}, nil).Once()
	repo.On("ListDevices", mock.Anything, "", 10, 0).Return([]*models.Device{{ID: 1}}, nil).Once()
	svc := NewDeviceService(repo, events.NopPublisher{}, newNoopLogger())

	_, err := svc.List(context.Background(), reader, 10, 0)
	require.NoError(t, err)
	got, err := svc.List(context.Background(), admin, 10, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	repo.AssertExpectations(t)
}
