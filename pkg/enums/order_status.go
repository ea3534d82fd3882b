package enums

import "fmt"

// OrderStatus describes the allowed values for the service_orders `status` column.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusInProgress,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// IsValid reports whether the value matches the canonical order status enum.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the status machine allows moving to target.
// The only forward path is pending -> in_progress -> completed; cancellation is
// allowed from pending or in_progress.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch target {
	case OrderStatusInProgress:
		return s == OrderStatusPending
	case OrderStatusCompleted:
		return s == OrderStatusInProgress
	case OrderStatusCancelled:
		return s == OrderStatusPending || s == OrderStatusInProgress
	}
	return false
}

// ParseOrderStatus converts the raw string to OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
