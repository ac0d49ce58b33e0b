package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/locvowork/fleet_management_sample/internal/domain"
	"github.com/locvowork/fleet_management_sample/internal/repository/builder"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit"
)

// FleetRepository streams customers, vehicles and orders out of Postgres.
type FleetRepository struct {
	db *sql.DB
}

// NewFleetRepository creates a new FleetRepository
func NewFleetRepository(db *sql.DB) *FleetRepository {
	return &FleetRepository{db: db}
}

var (
	_ domain.CustomerRepository = (*FleetRepository)(nil)
	_ domain.VehicleRepository  = (*FleetRepository)(nil)
	_ domain.OrderRepository    = (*FleetRepository)(nil)
)

// ==================== Queries ====================

func customersQuery(filter domain.ExportFilter) *builder.SQLBuilder {
	return builder.NewSQLBuilder().
		Select("id", "name", "tax_code", "phone", "email", "active", "created_at").
		From("customers").
		WhereIf(filter.CustomerID > 0, "id = ?", filter.CustomerID).
		WhereIf(!filter.From.IsZero(), "created_at >= ?", filter.From).
		WhereIf(!filter.To.IsZero(), "created_at < ?", filter.To).
		Search(filter.Query, "name", "tax_code", "phone").
		OrderBy("id ASC").
		Limit(filter.Limit)
}

func vehiclesQuery(filter domain.ExportFilter) *builder.SQLBuilder {
	return builder.NewSQLBuilder().
		Select("id", "plate", "model", "capacity_kg", "status", "registered_at", "last_service_at").
		From("vehicles").
		WhereIf(filter.Status != "", "status = ?", filter.Status).
		Search(filter.Query, "plate", "model").
		OrderBy("plate ASC").
		Limit(filter.Limit)
}

func ordersQuery(filter domain.ExportFilter) *builder.SQLBuilder {
	return builder.NewSQLBuilder().
		Select("o.id", "o.code", "o.customer_id", "c.name", "COALESCE(v.plate, '')", "o.status",
			"o.amount", "o.weight_kg", "o.destination", "o.pickup_at", "o.delivered_at").
		From("orders o").
		Join("INNER", "customers c", "c.id = o.customer_id").
		Join("LEFT", "vehicles v", "v.id = o.vehicle_id").
		WhereIf(filter.CustomerID > 0, "o.customer_id = ?", filter.CustomerID).
		WhereIf(filter.Status != "", "o.status = ?", filter.Status).
		WhereIf(!filter.From.IsZero(), "o.pickup_at >= ?", filter.From).
		WhereIf(!filter.To.IsZero(), "o.pickup_at < ?", filter.To).
		Search(filter.Query, "o.code", "c.name", "o.destination").
		OrderBy("o.pickup_at ASC").
		OrderBy("o.id ASC").
		Limit(filter.Limit)
}

// ==================== Streams ====================

func (r *FleetRepository) StreamCustomers(ctx context.Context, filter domain.ExportFilter) (excelkit.RowSource, error) {
	return stream(ctx, r.db, customersQuery(filter), func(rows *sql.Rows) (domain.Customer, error) {
		var c domain.Customer
		err := rows.Scan(&c.ID, &c.Name, &c.TaxCode, &c.Phone, &c.Email, &c.Active, &c.CreatedAt)
		return c, err
	})
}

func (r *FleetRepository) StreamVehicles(ctx context.Context, filter domain.ExportFilter) (excelkit.RowSource, error) {
	return stream(ctx, r.db, vehiclesQuery(filter), func(rows *sql.Rows) (domain.Vehicle, error) {
		var (
			v           domain.Vehicle
			lastService sql.NullTime
		)
		if err := rows.Scan(&v.ID, &v.Plate, &v.Model, &v.CapacityKg, &v.Status, &v.RegisteredAt, &lastService); err != nil {
			return v, err
		}
		v.LastServiceAt = nullTime(lastService)
		return v, nil
	})
}

func (r *FleetRepository) StreamOrders(ctx context.Context, filter domain.ExportFilter) (excelkit.RowSource, error) {
	return stream(ctx, r.db, ordersQuery(filter), func(rows *sql.Rows) (domain.Order, error) {
		var (
			o         domain.Order
			delivered sql.NullTime
		)
		if err := rows.Scan(&o.ID, &o.Code, &o.CustomerID, &o.CustomerName, &o.VehiclePlate, &o.Status,
			&o.Amount, &o.WeightKg, &o.Destination, &o.PickupAt, &delivered); err != nil {
			return o, err
		}
		o.DeliveredAt = nullTime(delivered)
		return o, nil
	})
}

func stream[T any](ctx context.Context, db *sql.DB, b *builder.SQLBuilder, scan func(*sql.Rows) (T, error)) (excelkit.RowSource, error) {
	query, args, err := b.BuildSafe()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return newRowsSource(rows, scan), nil
}
