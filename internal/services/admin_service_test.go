package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/grillhouse/internal/apperr"
	"github.com/example/grillhouse/internal/config"
	"github.com/example/grillhouse/internal/database/dbtest"
	"github.com/example/grillhouse/internal/models"
)

func TestAdminListOrders(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	p := dbtest.Product(t, db, "Cola", "30.00", true)
	user := dbtest.User(t, db, "+380501234567")
	orders := NewOrderService(db, config.DefaultOrderLimits(), nil)

	names := []string{"Olena Shevchenko", "Petro Bondar", "Olena Kovalenko"}
	var created []*models.Order
	for _, name := range names {
		input := validInput(CartItem{ProductID: p.ID, Quantity: 1})
		input.CustomerName = name
		order, err := orders.Create(ctx, user.ID, input)
		require.NoError(t, err)
		created = append(created, order)
	}

	delivered := "DELIVERED"
	_, err := orders.Update(ctx, created[0].ID, OrderPatch{Status: &delivered})
	require.NoError(t, err)

	svc := NewAdminService(db)

	all, err := svc.ListOrders(ctx, OrderFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)
	assert.Equal(t, 1, all.Page)
	assert.Equal(t, 10, all.Limit)
	assert.Equal(t, 1, all.TotalPages)
	assert.Equal(t, int64(2), all.OrderStats[models.OrderStatusPending])
	assert.Equal(t, int64(1), all.OrderStats[models.OrderStatusDelivered])
	assert.Equal(t, int64(0), all.OrderStats[models.OrderStatusCancelled])

	olena, err := svc.ListOrders(ctx, OrderFilters{Search: "olena", Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), olena.Total)
	require.Len(t, olena.Orders, 1)
	assert.Equal(t, created[2].ID, olena.Orders[0].ID)
	assert.Equal(t, int64(1), olena.OrderStats[models.OrderStatusPending], "stats ignore the status filter")
	assert.Equal(t, int64(1), olena.OrderStats[models.OrderStatusDelivered])

	byID, err := svc.ListOrders(ctx, OrderFilters{Search: created[1].ID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), byID.Total)

	paged, err := svc.ListOrders(ctx, OrderFilters{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, paged.Orders, 1)
	assert.Equal(t, 2, paged.TotalPages)

	_, err = svc.ListOrders(ctx, OrderFilters{Status: "LOST"})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestAdminDashboard(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	p := dbtest.Product(t, db, "Chicken", "120.00", true)
	user := dbtest.User(t, db, "+380501234567")
	orders := NewOrderService(db, config.DefaultOrderLimits(), nil)

	first, err := orders.Create(ctx, user.ID, validInput(CartItem{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	_, err = orders.Create(ctx, user.ID, validInput(CartItem{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)

	cancelled := "CANCELLED"
	_, err = orders.Update(ctx, first.ID, OrderPatch{Status: &cancelled})
	require.NoError(t, err)

	dash, err := NewAdminService(db).Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dash.TotalUsers)
	assert.Equal(t, int64(2), dash.TotalOrders)
	assert.Equal(t, "240.00", dash.Revenue.StringFixed(2))
	assert.Equal(t, "240.00", dash.AverageOrder.StringFixed(2))
	assert.Equal(t, int64(1), dash.OrdersByStatus[models.OrderStatusCancelled])
	assert.Len(t, dash.RecentOrders, 2)
}
