package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/grillhouse/internal/models"
)

// OrderFilters narrows the back-office order list.
type OrderFilters struct {
	Status string
	Search string
	Limit  int
	Offset int
}

// Orders persists orders, their items and payments.
type Orders struct {
	db *gorm.DB
}

// NewOrders constructs Orders over db, which may be a transaction.
func NewOrders(db *gorm.DB) *Orders {
	return &Orders{db: db}
}

// Create inserts the order, its items and its payment. Call it inside a transaction.
func (r *Orders) Create(ctx context.Context, order *models.Order, items []models.OrderItem, payment *models.Payment) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit("Items", "Payment", "User").Create(order).Error; err != nil {
		return err
	}

	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := db.Omit("Product").Create(&items).Error; err != nil {
		return err
	}

	payment.OrderID = order.ID
	return db.Create(payment).Error
}

// ReplaceItems deletes every line of the order and inserts items instead.
func (r *Orders) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	for i := range items {
		items[i].OrderID = orderID
	}
	return db.Omit("Product").Create(&items).Error
}

// Update writes only the given columns.
func (r *Orders) Update(ctx context.Context, orderID uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).Updates(fields).Error
}

// Full returns the order joined with items, products, payment and user.
func (r *Orders) Full(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.joined(ctx).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ByUser returns the order history of a user, newest first.
func (r *Orders) ByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error
	return orders, err
}

// List returns a page of orders and the number of orders matching the filters.
func (r *Orders) List(ctx context.Context, f OrderFilters) ([]models.Order, int64, error) {
	filtered := func() *gorm.DB {
		query := applySearch(r.db.WithContext(ctx).Model(&models.Order{}), f.Search)
		if f.Status != "" {
			query = query.Where("status = ?", strings.ToUpper(f.Status))
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := filtered().
		Preload("Items.Product").
		Preload("Payment").
		Order("created_at desc").
		Limit(f.Limit).Offset(f.Offset).
		Find(&orders).Error
	return orders, total, err
}

// StatusCounts counts orders per status, honouring only the search filter.
func (r *Orders) StatusCounts(ctx context.Context, search string) (map[models.OrderStatus]int64, error) {
	type statusCount struct {
		Status models.OrderStatus
		Count  int64
	}

	var rows []statusCount
	err := applySearch(r.db.WithContext(ctx).Model(&models.Order{}), search).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Recent returns the latest orders with their items.
func (r *Orders) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Order("created_at desc").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// Revenue sums totals of non-cancelled orders created at or after since.
// A zero since sums everything.
func (r *Orders) Revenue(ctx context.Context, since time.Time) (decimal.Decimal, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("status <> ?", models.OrderStatusCancelled)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}

	// sqlite sums NUMERIC columns as REAL, so add the exact values here.
	if r.db.Dialector.Name() == "sqlite" {
		var totals []decimal.Decimal
		if err := query.Pluck("total", &totals).Error; err != nil {
			return decimal.Zero, 0, err
		}
		sum := decimal.Zero
		for _, total := range totals {
			sum = sum.Add(total)
		}
		return sum, int64(len(totals)), nil
	}

	var row struct {
		Total decimal.Decimal
		Count int64
	}
	err := query.Select("COALESCE(SUM(total), 0) AS total, COUNT(*) AS count").Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, err
	}
	return row.Total, row.Count, nil
}

// CountUsers counts storefront customers.
func (r *Orders) CountUsers(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleUser).Count(&total).Error
	return total, err
}

func (r *Orders) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("Items.Product").
		Preload("Payment").
		Preload("User")
}

func applySearch(query *gorm.DB, search string) *gorm.DB {
	search = strings.TrimSpace(search)
	if search == "" {
		return query
	}
	if id, err := uuid.Parse(search); err == nil {
		return query.Where("id = ?", id)
	}

	like := "%" + strings.ToLower(search) + "%"
	return query.Where("LOWER(customer_name) LIKE ? OR customer_phone LIKE ?", like, "%"+search+"%")
}

// Lock loads the order row and locks it for the rest of the transaction
// on engines with row locks.
func (r *Orders) Lock(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
