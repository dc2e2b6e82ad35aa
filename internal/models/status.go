package models

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"
	StatusApproved        OrderStatus = "approved"
	StatusPendingShipping OrderStatus = "pending_shipping"
	StatusShipping        OrderStatus = "shipping"
	StatusDelivered       OrderStatus = "delivered"
	StatusCancelled       OrderStatus = "cancelled"
	StatusRejected        OrderStatus = "rejected"
)

// statusTransitions is the enforced transition table. Terminal states
// (delivered, cancelled, rejected) have no outgoing edges.
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:         {StatusApproved, StatusCancelled, StatusRejected},
	StatusApproved:        {StatusPendingShipping, StatusCancelled, StatusRejected},
	StatusPendingShipping: {StatusShipping, StatusCancelled},
	StatusShipping:        {StatusDelivered},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusPendingShipping,
		StatusShipping, StatusDelivered, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s OrderStatus) Terminal() bool {
	return len(statusTransitions[s]) == 0 && s.Valid()
}

// CanTransition reports whether an order may move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
