package order

import "storefront-checkout/internal/domain"

// allowedTransitions is the order lifecycle. DELIVERED and CANCELLED are terminal.
var allowedTransitions = map[domain.OrderStatus]map[domain.OrderStatus]bool{
	domain.OrderStatusPending: {
		domain.OrderStatusInProgress: true,
		domain.OrderStatusCancelled:  true,
	},
	domain.OrderStatusInProgress: {
		domain.OrderStatusShipped:   true,
		domain.OrderStatusCancelled: true,
	},
	domain.OrderStatusShipped: {
		domain.OrderStatusDelivered: true,
	},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to domain.OrderStatus) bool {
	return allowedTransitions[from][to]
}

// NextStatuses lists the statuses reachable from s in lifecycle order.
func NextStatuses(s domain.OrderStatus) []domain.OrderStatus {
	var next []domain.OrderStatus
	for _, candidate := range domain.OrderStatuses {
		if CanTransition(s, candidate) {
			next = append(next, candidate)
		}
	}
	return next
}

func IsTerminal(s domain.OrderStatus) bool {
	return len(allowedTransitions[s]) == 0
}
