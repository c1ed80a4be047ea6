package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/grillhouse/internal/apperr"
	"github.com/example/grillhouse/internal/models"
	"github.com/example/grillhouse/internal/repository"
	"github.com/example/grillhouse/internal/utils"
)

const recentOrdersLimit = 5

// OrderFilters selects a page of the back-office order list.
type OrderFilters struct {
	Status string
	Search string
	Page   int
	Limit  int
}

// OrderList is one page of orders with per-status counts.
type OrderList struct {
	Orders     []models.Order               `json:"orders"`
	Total      int64                        `json:"total"`
	Page       int                          `json:"page"`
	Limit      int                          `json:"limit"`
	TotalPages int                          `json:"totalPages"`
	OrderStats map[models.OrderStatus]int64 `json:"orderStats"`
}

// Dashboard summarizes the shop.
type Dashboard struct {
	TotalUsers     int64                        `json:"totalUsers"`
	TotalOrders    int64                        `json:"totalOrders"`
	OrdersByStatus map[models.OrderStatus]int64 `json:"ordersByStatus"`
	Revenue        decimal.Decimal              `json:"revenue"`
	TodayRevenue   decimal.Decimal              `json:"todayRevenue"`
	TodayOrders    int64                        `json:"todayOrders"`
	AverageOrder   decimal.Decimal              `json:"averageOrder"`
	RecentOrders   []models.Order               `json:"recentOrders"`
}

// AdminService backs the order management screens.
type AdminService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAdminService constructs AdminService.
func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db, now: time.Now}
}

// ListOrders returns a filtered page of orders. The per-status counts honour
// the search term but not the status filter.
func (s *AdminService) ListOrders(ctx context.Context, f OrderFilters) (*OrderList, error) {
	f.Status = strings.ToUpper(strings.TrimSpace(f.Status))
	if f.Status != "" && !knownStatus(models.OrderStatus(f.Status)) {
		return nil, apperr.Validation("unknown order status", map[string][]string{
			"status": {"unknown order status"},
		})
	}

	pg := utils.NewPagination(f.Page, f.Limit)
	orders := repository.NewOrders(s.db)

	list, total, err := orders.List(ctx, repository.OrderFilters{
		Status: f.Status,
		Search: f.Search,
		Limit:  pg.Limit,
		Offset: pg.Offset,
	})
	if err != nil {
		return nil, apperr.FromDB(err, "order")
	}

	counts, err := orders.StatusCounts(ctx, f.Search)
	if err != nil {
		return nil, apperr.FromDB(err, "order")
	}

	return &OrderList{
		Orders:     list,
		Total:      total,
		Page:       pg.Page,
		Limit:      pg.Limit,
		TotalPages: pg.TotalPages(total),
		OrderStats: withAllStatuses(counts),
	}, nil
}

// Order returns one fully joined order.
func (s *AdminService) Order(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := repository.NewOrders(s.db).Full(ctx, id)
	if err != nil {
		return nil, apperr.FromDB(err, "order")
	}
	return order, nil
}

// Dashboard aggregates users, orders and revenue. Cancelled orders earn nothing.
func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	orders := repository.NewOrders(s.db)

	users, err := orders.CountUsers(ctx)
	if err != nil {
		return nil, apperr.FromDB(err, "user")
	}

	counts, err := orders.StatusCounts(ctx, "")
	if err != nil {
		return nil, apperr.FromDB(err, "order")
	}

	revenue, paidOrders, err := orders.Revenue(ctx, time.Time{})
	if err != nil {
		return nil, apperr.FromDB(err, "order")
	}

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayRevenue, todayOrders, err := orders.Revenue(ctx, startOfDay)
	if err != nil {
		return nil, apperr.FromDB(err, "order")
	}

	recent, err := orders.Recent(ctx, recentOrdersLimit)
	if err != nil {
		return nil, apperr.FromDB(err, "order")
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	average := decimal.Zero
	if paidOrders > 0 {
		average = revenue.Div(decimal.NewFromInt(paidOrders)).Round(2)
	}

	return &Dashboard{
		TotalUsers:     users,
		TotalOrders:    total,
		OrdersByStatus: withAllStatuses(counts),
		Revenue:        revenue,
		TodayRevenue:   todayRevenue,
		TodayOrders:    todayOrders,
		AverageOrder:   average,
		RecentOrders:   recent,
	}, nil
}

func knownStatus(status models.OrderStatus) bool {
	for _, s := range models.OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func withAllStatuses(counts map[models.OrderStatus]int64) map[models.OrderStatus]int64 {
	all := make(map[models.OrderStatus]int64, len(models.OrderStatuses))
	for _, status := range models.OrderStatuses {
		all[status] = counts[status]
	}
	return all
}
