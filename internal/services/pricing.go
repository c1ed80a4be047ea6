package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/grillhouse/internal/apperr"
	"github.com/example/grillhouse/internal/config"
	"github.com/example/grillhouse/internal/models"
	"github.com/example/grillhouse/internal/repository"
)

// CartItem is one requested line. Prices are never taken from the client.
type CartItem struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// PricedLine is a cart line with the catalog price captured at pricing time.
// It deliberately holds no reference to the live product.
type PricedLine struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal returns UnitPrice × Quantity.
func (l PricedLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// PricedCart is the authoritative pricing of a cart.
type PricedCart struct {
	Lines []PricedLine
	Total decimal.Decimal
}

// OrderItems converts the priced lines into unsaved order items.
func (c PricedCart) OrderItems() []models.OrderItem {
	items := make([]models.OrderItem, 0, len(c.Lines))
	for _, line := range c.Lines {
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice,
		})
	}
	return items
}

// ValidateCart enforces the structural cart rules: non-empty, at most
// MaxCartItems lines and every quantity within 1..MaxItemQuantity.
func ValidateCart(items []CartItem, limits config.OrderLimits) error {
	if len(items) == 0 {
		return apperr.Validation("order must contain at least one item", map[string][]string{
			"items": {"items must not be empty"},
		})
	}
	if len(items) > limits.MaxCartItems {
		return apperr.Validation("too many items in order", map[string][]string{
			"items": {fmt.Sprintf("at most %d items are allowed", limits.MaxCartItems)},
		})
	}

	details := map[string][]string{}
	for i, item := range items {
		if item.ProductID == uuid.Nil {
			key := fmt.Sprintf("items[%d].productId", i)
			details[key] = append(details[key], "productId is required")
		}
		if item.Quantity < 1 || item.Quantity > limits.MaxItemQuantity {
			key := fmt.Sprintf("items[%d].quantity", i)
			details[key] = append(details[key], fmt.Sprintf("quantity must be between 1 and %d", limits.MaxItemQuantity))
		}
	}
	if len(details) > 0 {
		return apperr.Validation("invalid order items", details)
	}
	return nil
}

// PriceCart resolves every line against the active catalog and totals the
// cart in fixed-point arithmetic. A missing or inactive product rejects the
// whole cart with a not-found error naming the offending ids.
func PriceCart(ctx context.Context, catalog repository.CatalogReader, items []CartItem, limits config.OrderLimits) (PricedCart, error) {
	if err := ValidateCart(items, limits); err != nil {
		return PricedCart{}, err
	}

	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	products, err := catalog.ActiveProductsByIDs(ctx, ids)
	if err != nil {
		return PricedCart{}, apperr.FromDB(err, "product")
	}

	prices := make(map[uuid.UUID]decimal.Decimal, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
	}

	if len(prices) < len(ids) {
		missing := make([]string, 0, len(ids)-len(prices))
		for _, id := range ids {
			if _, ok := prices[id]; !ok {
				missing = append(missing, id.String())
			}
		}
		return PricedCart{}, apperr.NotFound("some products are unavailable", map[string]any{
			"missingProductIds": missing,
		})
	}

	cart := PricedCart{Lines: make([]PricedLine, 0, len(items)), Total: decimal.Zero}
	for _, item := range items {
		line := PricedLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: prices[item.ProductID],
		}
		cart.Lines = append(cart.Lines, line)
		cart.Total = cart.Total.Add(line.Subtotal())
	}

	if !cart.Total.IsPositive() {
		return PricedCart{}, apperr.Validation("order total must be greater than zero", map[string][]string{
			"total": {"order total must be greater than zero"},
		})
	}
	if cart.Total.GreaterThan(limits.MaxTotal) {
		return PricedCart{}, apperr.Validation("order total exceeds the allowed maximum", map[string][]string{
			"total": {fmt.Sprintf("order total must not exceed %s", limits.MaxTotal.StringFixed(2))},
		})
	}
	return cart, nil
}
