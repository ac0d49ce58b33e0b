package domain

import (
	"context"
	"time"

	"github.com/locvowork/fleet_management_sample/pkg/excelkit"
)

// ExportFilter narrows the records of an export. Zero fields do not filter.
type ExportFilter struct {
	From       time.Time
	To         time.Time
	CustomerID int64
	Status     string
	Category   string
	Query      string
	Limit      int
}

// The repositories below stream records as row sources. A returned source
// may hold a cursor; it is released when the source is closed or exhausted.

type CustomerRepository interface {
	StreamCustomers(ctx context.Context, filter ExportFilter) (excelkit.RowSource, error)
}

type VehicleRepository interface {
	StreamVehicles(ctx context.Context, filter ExportFilter) (excelkit.RowSource, error)
}

type OrderRepository interface {
	StreamOrders(ctx context.Context, filter ExportFilter) (excelkit.RowSource, error)
}

// OrderSearcher streams orders matching a full-text query.
type OrderSearcher interface {
	SearchOrders(ctx context.Context, filter ExportFilter) (excelkit.RowSource, error)
}

type CostRepository interface {
	StreamCosts(ctx context.Context, filter ExportFilter) (excelkit.RowSource, error)
}
