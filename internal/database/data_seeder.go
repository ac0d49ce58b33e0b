package database

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/locvowork/fleet_management_sample/internal/domain"
	"github.com/locvowork/fleet_management_sample/internal/logger"
	"github.com/locvowork/fleet_management_sample/pkg/dataflow"
)

const (
	orderBulkSize = 5000
	writeWorkers  = 4
	writeRetries  = 3
)

// FleetSeeder fills the stores with sample fleet data for local exports.
// search and store are optional.
type FleetSeeder struct {
	db     *sql.DB
	search *ElasticSearchClient
	store  *DatastoreClient
	rng    *rand.Rand
}

func NewFleetSeeder(db *sql.DB, search *ElasticSearchClient, store *DatastoreClient) *FleetSeeder {
	return &FleetSeeder{db: db, search: search, store: store, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// WithSeed makes the generated data reproducible.
func (s *FleetSeeder) WithSeed(seed int64) *FleetSeeder {
	s.rng = rand.New(rand.NewSource(seed))
	return s
}

var (
	customerNames = []string{"Minh Phat", "Hoang Long", "Thanh Cong", "Viet Tien", "An Khang", "Phu Gia", "Tan Hiep", "Dai Nam", "Kim Thanh", "Sao Mai"}
	cities        = []string{"Ha Noi", "Hai Phong", "Da Nang", "Nha Trang", "Can Tho", "Vung Tau", "Bien Hoa", "Hue", "Quy Nhon", "Da Lat"}
	models        = []string{"Hino 500", "Isuzu NQR", "Hyundai HD120", "Thaco Ollin", "Fuso Canter"}
	plateRegions  = []string{"29H", "30K", "43C", "51C", "51D", "61C", "65C"}
	costItems     = []string{"fuel", "toll", "maintenance", "parking", "insurance"}
	orderStatuses = []string{domain.OrderPending, domain.OrderInTransit, domain.OrderDelivered, domain.OrderDelivered, domain.OrderCancelled}
)

// SeedSize is how many records of each kind a run generates.
type SeedSize struct {
	Customers int
	Vehicles  int
	Orders    int
	Costs     int
}

// FleetData is one generated data set.
type FleetData struct {
	Customers []domain.Customer
	Vehicles  []domain.Vehicle
	Orders    []domain.Order
	Costs     []domain.CostEntry
}

// Generate builds a consistent data set: every order references a generated
// customer and, unless pending, a generated vehicle. Times fall in the
// ninety days before now.
func (s *FleetSeeder) Generate(size SeedSize, now time.Time) FleetData {
	now = now.UTC().Truncate(time.Second)
	start := now.AddDate(0, 0, -90)
	r := s.rng
	var data FleetData

	for i := 1; i <= size.Customers; i++ {
		name := customerNames[(i-1)%len(customerNames)]
		if i > len(customerNames) {
			name = fmt.Sprintf("%s %d", name, (i-1)/len(customerNames)+1)
		}
		data.Customers = append(data.Customers, domain.Customer{
			ID:        int64(i),
			Name:      name,
			TaxCode:   fmt.Sprintf("03%08d", r.Intn(100000000)),
			Phone:     fmt.Sprintf("09%08d", r.Intn(100000000)),
			Email:     fmt.Sprintf("contact%d@example.vn", i),
			Active:    r.Intn(10) > 0,
			CreatedAt: start.Add(time.Duration(r.Int63n(int64(90 * 24 * time.Hour)))),
		})
	}

	for i := 1; i <= size.Vehicles; i++ {
		v := domain.Vehicle{
			ID:           int64(i),
			Plate:        fmt.Sprintf("%s-%03d.%02d", plateRegions[r.Intn(len(plateRegions))], i, r.Intn(100)),
			Model:        models[r.Intn(len(models))],
			CapacityKg:   (r.Intn(15) + 1) * 1000,
			Status:       "active",
			RegisteredAt: start.AddDate(-r.Intn(5)-1, 0, 0),
		}
		if r.Intn(8) == 0 {
			v.Status = "maintenance"
		}
		if r.Intn(3) > 0 {
			t := start.Add(time.Duration(r.Int63n(int64(90 * 24 * time.Hour))))
			v.LastServiceAt = &t
		}
		data.Vehicles = append(data.Vehicles, v)
	}

	if len(data.Customers) > 0 {
		for i := 1; i <= size.Orders; i++ {
			c := data.Customers[r.Intn(len(data.Customers))]
			o := domain.Order{
				ID:           int64(i),
				Code:         fmt.Sprintf("DH-%06d", i),
				CustomerID:   c.ID,
				CustomerName: c.Name,
				Status:       orderStatuses[r.Intn(len(orderStatuses))],
				Amount:       float64(r.Intn(4900)+100) * 1000,
				WeightKg:     float64(r.Intn(80000)) / 10,
				Destination:  cities[r.Intn(len(cities))],
				PickupAt:     start.Add(time.Duration(r.Int63n(int64(88 * 24 * time.Hour)))),
			}
			if o.Status != domain.OrderPending && len(data.Vehicles) > 0 {
				o.VehiclePlate = data.Vehicles[r.Intn(len(data.Vehicles))].Plate
			}
			if o.Status == domain.OrderDelivered {
				t := o.PickupAt.Add(time.Duration(r.Intn(48)+2) * time.Hour)
				o.DeliveredAt = &t
			}
			data.Orders = append(data.Orders, o)
		}
	}

	if len(data.Vehicles) > 0 {
		for i := 0; i < size.Costs; i++ {
			item := costItems[r.Intn(len(costItems))]
			data.Costs = append(data.Costs, domain.CostEntry{
				VehiclePlate: data.Vehicles[r.Intn(len(data.Vehicles))].Plate,
				Category:     item,
				Amount:       int64(r.Intn(5000)+50) * 1000,
				IncurredAt:   start.Add(time.Duration(r.Int63n(int64(90 * 24 * time.Hour)))),
				Note:         fmt.Sprintf("%s #%d", item, i+1),
			})
		}
	}
	return data
}

// Seed generates a data set and writes it to every configured store.
func (s *FleetSeeder) Seed(ctx context.Context, size SeedSize) (FleetData, error) {
	start := time.Now()
	data := s.Generate(size, start)

	if err := s.insertSQL(ctx, data); err != nil {
		return data, err
	}
	logger.InfoLog(ctx, "Inserted %d customers, %d vehicles, %d orders", len(data.Customers), len(data.Vehicles), len(data.Orders))

	if s.search != nil {
		if err := writeChunks(ctx, data.Orders, orderBulkSize, func(ctx context.Context, c chunk[domain.Order]) error {
			return s.search.BulkIndexOrders(ctx, c.items)
		}); err != nil {
			return data, fmt.Errorf("failed to index orders: %w", err)
		}
		logger.InfoLog(ctx, "Indexed %d orders", len(data.Orders))
	} else {
		logger.WarnLog(ctx, "No search client, orders not indexed")
	}

	if s.store != nil {
		if err := writeChunks(ctx, data.Costs, maxPutMulti, func(ctx context.Context, c chunk[domain.CostEntry]) error {
			return s.store.SaveCosts(ctx, c.items, c.offset)
		}); err != nil {
			return data, fmt.Errorf("failed to save costs: %w", err)
		}
		logger.InfoLog(ctx, "Saved %d cost entries", len(data.Costs))
	} else {
		logger.WarnLog(ctx, "No datastore client, costs not saved")
	}

	logger.InfoLog(ctx, "Seeding done in %v", time.Since(start))
	return data, nil
}

type chunk[T any] struct {
	offset int
	items  []T
}

func chunks[T any](items []T, size int) []chunk[T] {
	var out []chunk[T]
	for start := 0; start < len(items); start += size {
		out = append(out, chunk[T]{offset: start, items: items[start:min(start+size, len(items))]})
	}
	return out
}

// writeChunks hands items to write in chunks, a few at a time, retrying a
// failed chunk with a linear backoff.
func writeChunks[T any](ctx context.Context, items []T, size int, write func(context.Context, chunk[T]) error) error {
	return dataflow.ForEach(ctx, dataflow.From(ctx, chunks(items, size)...), func(c chunk[T]) error {
		return write(ctx, c)
	},
		dataflow.WithWorkers(writeWorkers),
		dataflow.WithRetry(writeRetries, dataflow.LinearBackoff(500*time.Millisecond)),
	)
}

func (s *FleetSeeder) insertSQL(ctx context.Context, data FleetData) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertAll(ctx, tx, `
		INSERT INTO customers (id, name, tax_code, phone, email, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING`, data.Customers, func(c domain.Customer) []interface{} {
		return []interface{}{c.ID, c.Name, c.TaxCode, c.Phone, c.Email, c.Active, c.CreatedAt}
	}); err != nil {
		return fmt.Errorf("failed to insert customers: %w", err)
	}

	if err := insertAll(ctx, tx, `
		INSERT INTO vehicles (id, plate, model, capacity_kg, status, registered_at, last_service_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING`, data.Vehicles, func(v domain.Vehicle) []interface{} {
		return []interface{}{v.ID, v.Plate, v.Model, v.CapacityKg, v.Status, v.RegisteredAt, nullable(v.LastServiceAt)}
	}); err != nil {
		return fmt.Errorf("failed to insert vehicles: %w", err)
	}

	if err := insertAll(ctx, tx, `
		INSERT INTO orders (id, code, customer_id, vehicle_id, status, amount, weight_kg, destination, pickup_at, delivered_at)
		VALUES ($1, $2, $3, (SELECT id FROM vehicles WHERE plate = NULLIF($4, '')), $5, $6, $7, $8, $9, $10)
		ON CONFLICT DO NOTHING`, data.Orders, func(o domain.Order) []interface{} {
		return []interface{}{o.ID, o.Code, o.CustomerID, o.VehiclePlate, o.Status, o.Amount, o.WeightKg, o.Destination, o.PickupAt, nullable(o.DeliveredAt)}
	}); err != nil {
		return fmt.Errorf("failed to insert orders: %w", err)
	}

	return tx.Commit()
}

func insertAll[T any](ctx context.Context, tx *sql.Tx, query string, items []T, args func(T) []interface{}) error {
	if len(items) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, args(item)...); err != nil {
			return err
		}
	}
	return nil
}

func nullable(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

// Clear removes every row the seeder writes to Postgres. Orders go first
// because they reference both other tables.
func (s *FleetSeeder) Clear(ctx context.Context) error {
	for _, table := range []string{"orders", "vehicles", "customers"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to delete %s: %w", table, err)
		}
	}
	logger.InfoLog(ctx, "Cleared SQL data")
	return nil
}

// Presets
type SeedPreset string

const (
	PresetSmall  SeedPreset = "small"
	PresetMedium SeedPreset = "medium"
	PresetLarge  SeedPreset = "large"
	PresetXLarge SeedPreset = "xlarge"
)

// GetPresetConfig returns the sizes for a preset. Unknown presets get the
// medium sizes.
func GetPresetConfig(preset SeedPreset) SeedSize {
	switch preset {
	case PresetSmall:
		return SeedSize{Customers: 10, Vehicles: 5, Orders: 100, Costs: 50}
	case PresetLarge:
		return SeedSize{Customers: 500, Vehicles: 120, Orders: 50000, Costs: 20000}
	case PresetXLarge:
		return SeedSize{Customers: 2000, Vehicles: 400, Orders: 500000, Costs: 100000}
	default:
		return SeedSize{Customers: 100, Vehicles: 30, Orders: 5000, Costs: 2000}
	}
}
