package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/grillhouse/internal/apperr"
	"github.com/example/grillhouse/internal/config"
	"github.com/example/grillhouse/internal/logger"
	"github.com/example/grillhouse/internal/metrics"
	"github.com/example/grillhouse/internal/models"
	"github.com/example/grillhouse/internal/repository"
	"github.com/example/grillhouse/internal/utils"
	"github.com/example/grillhouse/internal/validation"
)

const notifyTimeout = 15 * time.Second

// CreateOrderInput is the checkout payload.
type CreateOrderInput struct {
	CustomerName    string     `json:"customerName" validate:"required,min=2,max=100"`
	CustomerPhone   string     `json:"customerPhone" validate:"required,phone"`
	CustomerEmail   *string    `json:"customerEmail" validate:"omitempty,email,max=255"`
	DeliveryAddress string     `json:"deliveryAddress" validate:"required,min=5,max=500"`
	PaymentMethod   string     `json:"paymentMethod" validate:"required,oneof=CASH CARD ONLINE"`
	Items           []CartItem `json:"items"`
}

// Normalize trims text fields, canonicalizes the phone and drops an empty email.
func (in *CreateOrderInput) Normalize() {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = utils.NormalizePhone(in.CustomerPhone)
	in.DeliveryAddress = strings.TrimSpace(in.DeliveryAddress)
	in.PaymentMethod = strings.ToUpper(strings.TrimSpace(in.PaymentMethod))
	in.CustomerEmail = trimOptional(in.CustomerEmail)
}

// OrderService places and amends orders.
type OrderService struct {
	db       *gorm.DB
	limits   config.OrderLimits
	notifier OrderNotifier
}

// NewOrderService constructs OrderService. notifier may be nil.
func NewOrderService(db *gorm.DB, limits config.OrderLimits, notifier OrderNotifier) *OrderService {
	return &OrderService{db: db, limits: limits, notifier: notifier}
}

// Create places an order owned by an authenticated user.
func (s *OrderService) Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*models.Order, error) {
	order, err := s.create(ctx, input, func(ctx context.Context, tx *gorm.DB, _ CreateOrderInput) (*models.User, error) {
		return repository.NewUsers(tx).ByID(ctx, userID)
	})
	return s.finishCreate(ctx, "user", order, err)
}

// CreateGuest places an order for an unauthenticated customer, owned by the
// user registered under customerPhone. The user is created when unknown.
func (s *OrderService) CreateGuest(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	order, err := s.create(ctx, input, func(ctx context.Context, tx *gorm.DB, input CreateOrderInput) (*models.User, error) {
		users := repository.NewUsers(tx)
		user, err := users.ByPhone(ctx, input.CustomerPhone)
		if err != nil || user != nil {
			return user, err
		}

		name := input.CustomerName
		user = &models.User{
			Phone:    input.CustomerPhone,
			Name:     &name,
			Role:     models.RoleUser,
			IsActive: true,
		}
		if err := users.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	})
	return s.finishCreate(ctx, "guest", order, err)
}

type ownerFunc func(ctx context.Context, tx *gorm.DB, input CreateOrderInput) (*models.User, error)

func (s *OrderService) create(ctx context.Context, input CreateOrderInput, owner ownerFunc) (*models.Order, error) {
	input.Normalize()
	if err := validation.Struct(&input); err != nil {
		return nil, err
	}

	cart, err := PriceCart(ctx, repository.NewCatalog(s.db), input.Items, s.limits)
	if err != nil {
		return nil, err
	}

	var created *models.Order
	err = s.withTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		user, err := owner(ctx, tx, input)
		if err != nil {
			return err
		}
		if user == nil || !user.IsActive {
			return apperr.Unauthorized("user account is inactive")
		}

		order := &models.Order{
			UserID:          user.ID,
			CustomerName:    input.CustomerName,
			CustomerPhone:   input.CustomerPhone,
			CustomerEmail:   input.CustomerEmail,
			DeliveryAddress: input.DeliveryAddress,
			PaymentMethod:   models.PaymentMethod(input.PaymentMethod),
			Status:          models.OrderStatusPending,
			Total:           cart.Total,
		}
		payment := &models.Payment{
			Amount: cart.Total,
			Method: order.PaymentMethod,
			Status: models.PaymentStatusPending,
		}

		orders := repository.NewOrders(tx)
		if err := orders.Create(ctx, order, cart.OrderItems(), payment); err != nil {
			return err
		}

		created, err = orders.Full(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, apperr.FromDB(err, "order")
	}
	return created, nil
}

func (s *OrderService) finishCreate(ctx context.Context, channel string, order *models.Order, err error) (*models.Order, error) {
	if err != nil {
		if appErr, ok := apperr.As(err); ok {
			metrics.OrderFailures.WithLabelValues("create", appErr.Code).Inc()
		}
		return nil, err
	}

	metrics.OrdersCreated.WithLabelValues(channel).Inc()
	logger.Info("order created",
		"order_id", order.ID,
		"user_id", order.UserID,
		"channel", channel,
		"items", len(order.Items),
		"total", order.Total.StringFixed(2),
	)

	if s.notifier != nil {
		go s.dispatchNotification(context.WithoutCancel(ctx), *order)
	}
	return order, nil
}

func (s *OrderService) dispatchNotification(ctx context.Context, order models.Order) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if err := s.notifier.NotifyNewOrder(ctx, &order); err != nil {
		logger.Warn("order notification failed", "order_id", order.ID, "error", err)
	}
}

// withTx runs fn in a transaction bounded by TxTimeout. On PostgreSQL row
// lock waits are additionally capped by TxAcquireTimeout. Running out of
// either budget surfaces as a retryable unavailable error.
func (s *OrderService) withTx(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	if s.limits.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.limits.TxTimeout)
		defer cancel()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" && s.limits.TxAcquireTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.limits.TxAcquireTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(ctx, tx)
	})
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		if _, ok := apperr.As(err); !ok {
			return apperr.Unavailable("order transaction timed out, retry later", err)
		}
	}
	return err
}

// OrderCreatedView is the public response to a placed order.
type OrderCreatedView struct {
	ID        uuid.UUID              `json:"id"`
	Status    models.OrderStatus     `json:"status"`
	Total     decimal.Decimal        `json:"total"`
	CreatedAt time.Time              `json:"createdAt"`
	Items     []OrderCreatedItemView `json:"items"`
}

// OrderCreatedItemView is one line of OrderCreatedView.
type OrderCreatedItemView struct {
	ID       uuid.UUID       `json:"id"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Product  ProductRefView  `json:"product"`
}

// ProductRefView is the minimal product shape exposed on created orders.
type ProductRefView struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Image *string   `json:"image"`
}

// NewOrderCreatedView strips a joined order down to what the customer may see.
func NewOrderCreatedView(order *models.Order) OrderCreatedView {
	view := OrderCreatedView{
		ID:        order.ID,
		Status:    order.Status,
		Total:     order.Total,
		CreatedAt: order.CreatedAt,
		Items:     make([]OrderCreatedItemView, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		ref := ProductRefView{ID: item.ProductID}
		if item.Product != nil {
			ref.Name = item.Product.Name
			ref.Image = item.Product.Image
		}
		view.Items = append(view.Items, OrderCreatedItemView{
			ID:       item.ID,
			Quantity: item.Quantity,
			Price:    item.Price,
			Product:  ref,
		})
	}
	return view
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
