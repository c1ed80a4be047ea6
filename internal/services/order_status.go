package services

import "github.com/example/grillhouse/internal/models"

var validNext = map[models.OrderStatus]map[models.OrderStatus]bool{
	models.OrderStatusPending:   {models.OrderStatusPreparing: true, models.OrderStatusCancelled: true},
	models.OrderStatusPreparing: {models.OrderStatusReady: true, models.OrderStatusCancelled: true},
	models.OrderStatusReady:     {models.OrderStatusDelivered: true, models.OrderStatusCancelled: true},
	models.OrderStatusDelivered: {},
	models.OrderStatusCancelled: {},
}

// CanTransition reports whether an order may move from one status to another.
// Keeping the current status is always allowed.
func CanTransition(from, to models.OrderStatus) bool {
	if from == to {
		_, known := validNext[from]
		return known
	}
	return validNext[from][to]
}
