package domain

import "time"

// ==================== FLEET RECORDS ====================

// Customer represents the customers table in SQL DB
type Customer struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	TaxCode   string    `json:"tax_code" db:"tax_code"`
	Phone     string    `json:"phone" db:"phone"`
	Email     string    `json:"email" db:"email"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Vehicle represents the vehicles table in SQL DB
type Vehicle struct {
	ID            int64      `json:"id" db:"id"`
	Plate         string     `json:"plate" db:"plate"`
	Model         string     `json:"model" db:"model"`
	CapacityKg    int        `json:"capacity_kg" db:"capacity_kg"`
	Status        string     `json:"status" db:"status"`
	RegisteredAt  time.Time  `json:"registered_at" db:"registered_at"`
	LastServiceAt *time.Time `json:"last_service_at,omitempty" db:"last_service_at"`
}

// Order represents the orders table in SQL DB. The same shape is indexed
// into Elasticsearch for full-text search.
type Order struct {
	ID           int64      `json:"id" db:"id"`
	Code         string     `json:"code" db:"code"`
	CustomerID   int64      `json:"customer_id" db:"customer_id"`
	CustomerName string     `json:"customer_name" db:"customer_name"`
	VehiclePlate string     `json:"vehicle_plate" db:"vehicle_plate"`
	Status       string     `json:"status" db:"status"`
	Amount       float64    `json:"amount" db:"amount"`
	WeightKg     float64    `json:"weight_kg" db:"weight_kg"`
	Destination  string     `json:"destination" db:"destination"`
	PickupAt     time.Time  `json:"pickup_at" db:"pickup_at"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty" db:"delivered_at"`
}

// Delivered reports whether the order has a delivery time.
func (o Order) Delivered() bool {
	return o.DeliveredAt != nil
}

// CostEntry represents an operating cost document in GCP Datastore ONLY
type CostEntry struct {
	VehiclePlate string    `datastore:"VehiclePlate" json:"vehicle_plate"`
	Category     string    `datastore:"Category" json:"category"`
	Amount       int64     `datastore:"Amount" json:"amount"`
	IncurredAt   time.Time `datastore:"IncurredAt" json:"incurred_at"`
	Note         string    `datastore:"Note,noindex" json:"note"`
}

// Order statuses.
const (
	OrderPending   = "pending"
	OrderInTransit = "in_transit"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)
