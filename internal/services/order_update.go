package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/grillhouse/internal/apperr"
	"github.com/example/grillhouse/internal/logger"
	"github.com/example/grillhouse/internal/metrics"
	"github.com/example/grillhouse/internal/models"
	"github.com/example/grillhouse/internal/repository"
	"github.com/example/grillhouse/internal/utils"
	"github.com/example/grillhouse/internal/validation"
)

// OrderPatch is a sparse order update. Nil fields are left untouched;
// an empty CustomerEmail clears the email.
type OrderPatch struct {
	Status          *string     `json:"status" validate:"omitnil,oneof=PENDING PREPARING READY DELIVERED CANCELLED"`
	CustomerName    *string     `json:"customerName" validate:"omitnil,min=2,max=100"`
	CustomerPhone   *string     `json:"customerPhone" validate:"omitnil,phone"`
	CustomerEmail   *string     `json:"customerEmail" validate:"omitnil,email,max=255"`
	DeliveryAddress *string     `json:"deliveryAddress" validate:"omitnil,min=5,max=500"`
	PaymentMethod   *string     `json:"paymentMethod" validate:"omitnil,oneof=CASH CARD ONLINE"`
	Items           *[]CartItem `json:"items"`

	clearEmail bool
}

// IsEmpty reports whether no field is present.
func (p OrderPatch) IsEmpty() bool {
	return p.Status == nil &&
		p.CustomerName == nil &&
		p.CustomerPhone == nil &&
		p.CustomerEmail == nil &&
		!p.clearEmail &&
		p.DeliveryAddress == nil &&
		p.PaymentMethod == nil &&
		p.Items == nil
}

func (p *OrderPatch) normalize() {
	upper := func(v *string) *string {
		if v == nil {
			return nil
		}
		s := strings.ToUpper(strings.TrimSpace(*v))
		return &s
	}
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		s := strings.TrimSpace(*v)
		return &s
	}

	p.Status = upper(p.Status)
	p.PaymentMethod = upper(p.PaymentMethod)
	p.CustomerName = trim(p.CustomerName)
	p.DeliveryAddress = trim(p.DeliveryAddress)
	p.CustomerEmail = trim(p.CustomerEmail)
	if p.CustomerEmail != nil && *p.CustomerEmail == "" {
		p.CustomerEmail, p.clearEmail = nil, true
	}
	if p.CustomerPhone != nil {
		phone := utils.NormalizePhone(*p.CustomerPhone)
		p.CustomerPhone = &phone
	}
}

// fields returns the scalar columns to write.
func (p OrderPatch) fields() map[string]any {
	updates := map[string]any{}
	if p.Status != nil {
		updates["status"] = models.OrderStatus(*p.Status)
	}
	if p.CustomerName != nil {
		updates["customer_name"] = *p.CustomerName
	}
	if p.CustomerPhone != nil {
		updates["customer_phone"] = *p.CustomerPhone
	}
	if p.clearEmail {
		updates["customer_email"] = nil
	}
	if p.CustomerEmail != nil {
		updates["customer_email"] = *p.CustomerEmail
	}
	if p.DeliveryAddress != nil {
		updates["delivery_address"] = *p.DeliveryAddress
	}
	if p.PaymentMethod != nil {
		updates["payment_method"] = models.PaymentMethod(*p.PaymentMethod)
	}
	return updates
}

// Update applies patch to the order. When Items is present the lines are
// replaced and re-priced from the catalog and the total is recomputed, all in
// one transaction. Otherwise the total and items stay as they are.
func (s *OrderService) Update(ctx context.Context, orderID uuid.UUID, patch OrderPatch) (*models.Order, error) {
	order, err := s.update(ctx, orderID, patch)
	if err != nil {
		if appErr, ok := apperr.As(err); ok {
			metrics.OrderFailures.WithLabelValues("update", appErr.Code).Inc()
		}
		return nil, err
	}

	metrics.OrdersUpdated.WithLabelValues(strconv.FormatBool(patch.Items != nil)).Inc()
	logger.Info("order updated",
		"order_id", order.ID,
		"status", order.Status,
		"items_replaced", patch.Items != nil,
		"total", order.Total.StringFixed(2),
	)
	return order, nil
}

func (s *OrderService) update(ctx context.Context, orderID uuid.UUID, patch OrderPatch) (*models.Order, error) {
	if patch.IsEmpty() {
		return nil, apperr.Validation("at least one field must be provided", nil)
	}

	patch.normalize()
	if err := validation.Struct(&patch); err != nil {
		return nil, err
	}
	if patch.Items != nil {
		if err := ValidateCart(*patch.Items, s.limits); err != nil {
			return nil, err
		}
	}

	var updated *models.Order
	err := s.withTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		orders := repository.NewOrders(tx)
		current, err := orders.Lock(ctx, orderID)
		if err != nil {
			return err
		}

		if patch.Status != nil && s.limits.StrictTransitions {
			to := models.OrderStatus(*patch.Status)
			if !CanTransition(current.Status, to) {
				return apperr.Validation("status transition not allowed", map[string][]string{
					"status": {string(current.Status) + " cannot change to " + string(to)},
				})
			}
		}

		updates := patch.fields()
		if patch.Items != nil {
			cart, err := PriceCart(ctx, repository.NewCatalog(tx), *patch.Items, s.limits)
			if err != nil {
				return err
			}
			if err := orders.ReplaceItems(ctx, orderID, cart.OrderItems()); err != nil {
				return err
			}
			updates["total"] = cart.Total
		}

		if err := orders.Update(ctx, orderID, updates); err != nil {
			return err
		}

		updated, err = orders.Full(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, apperr.FromDB(err, "order")
	}
	return updated, nil
}
