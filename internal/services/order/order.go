// Package order оформление заказов: привязка книг каталога к учетной записи.
package order

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/iedcs-server/internal/events"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/sl"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
	"github.com/magabrotheeeer/iedcs-server/internal/services"
)

type Repository interface {
	ExistingBookIdentifiers(ctx context.Context, identifiers []string) ([]string, error)
	CreateOrder(ctx context.Context, accountID string, booksIdentifier []string) (*models.Order, error)
	GetOrder(ctx context.Context, id int) (*models.Order, error)
	ListOrders(ctx context.Context, accountID string, limit, offset int) ([]*models.Order, error)
	RemoveOrder(ctx context.Context, id int) error
}

type OrderService struct {
	repo      Repository
	publisher events.Publisher
	log       *slog.Logger
}

func NewOrderService(repo Repository, publisher events.Publisher, log *slog.Logger) *OrderService {
	return &OrderService{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// normalize убирает пробелы и повторы, сохраняя порядок
func normalize(identifiers []string) []string {
	seen := make(map[string]struct{}, len(identifiers))
	result := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

// Create оформляет заказ текущего пользователя. Все идентификаторы должны быть в каталоге,
// иначе возвращается UnknownBooksError со списком отсутствующих.
func (s *OrderService) Create(ctx context.Context, actor models.Actor, req models.OrderRequest) (*models.Order, error) {
	const op = "order.Create"
	identifiers := normalize(req.BooksIdentifier)
	if len(identifiers) == 0 {
		return nil, fmt.Errorf("%s: %w", op, services.NewFieldError("books_identifier", "this list may not be empty"))
	}

	existing, err := s.repo.ExistingBookIdentifiers(ctx, identifiers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		known[id] = struct{}{}
	}
	var missing []string
	for _, id := range identifiers {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: %w", op, &services.UnknownBooksError{Missing: missing})
	}

	order, err := s.repo.CreateOrder(ctx, actor.AccountID, identifiers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("order created", slog.Int("id", order.ID), slog.String("account_id", actor.AccountID))

	event := events.OrderCreated{
		OrderID:         order.ID,
		AccountID:       order.AccountID,
		BooksIdentifier: order.BooksIdentifier,
		At:              time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, rabbitmq.OrderCreated, event); err != nil {
		s.log.Warn("failed to publish event", slog.String("key", rabbitmq.OrderCreated), sl.Err(err))
	}
	return order, nil
}

func (s *OrderService) Read(ctx context.Context, actor models.Actor, id int) (*models.Order, error) {
	const op = "order.Read"
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !actor.CanAccess(order.AccountID) {
		return nil, fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}
	return order, nil
}

// List администратору отдает все заказы, остальным только свои.
func (s *OrderService) List(ctx context.Context, actor models.Actor, limit, offset int) ([]*models.Order, error) {
	const op = "order.List"
	accountID := actor.AccountID
	if actor.IsAdmin() {
		accountID = ""
	}
	orders, err := s.repo.ListOrders(ctx, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

func (s *OrderService) Remove(ctx context.Context, actor models.Actor, id int) error {
	const op = "order.Remove"
	if _, err := s.Read(ctx, actor, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.RemoveOrder(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("order removed", slog.Int("id", id))
	return nil
}
