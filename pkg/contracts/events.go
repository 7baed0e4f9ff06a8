package contracts

import "time"

const (
	OrdersTopic = "orders-outbox"

	EventHeader = "event_type"

	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
	EventPaymentChanged     = "order.payment_status_changed"
)

type OrderPlaced struct {
	OrderID   string        `json:"order_id"`
	UserID    string        `json:"user_id"`
	Source    string        `json:"source"`
	Total     string        `json:"total"`
	ItemCount int           `json:"item_count"`
	Items     []OrderedItem `json:"items"`
	PlacedAt  time.Time     `json:"placed_at"`
}

// OrderedItem identifies a cart line an order was built from.
type OrderedItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type OrderStatusChanged struct {
	OrderID        string    `json:"order_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
	ChangedAt      time.Time `json:"changed_at"`
}

type PaymentStatusChanged struct {
	OrderID        string    `json:"order_id"`
	PaymentStatus  string    `json:"payment_status"`
	PreviousStatus string    `json:"previous_status"`
	ChangedAt      time.Time `json:"changed_at"`
}
