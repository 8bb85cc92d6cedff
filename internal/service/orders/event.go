package orders

import (
	"time"
)

// Event is a single order event from the order system's bus. Status is
// matched case-insensitively; unknown statuses are skipped.
type Event struct {
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
