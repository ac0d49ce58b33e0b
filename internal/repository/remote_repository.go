package repository

import (
	"context"
	"errors"

	"cloud.google.com/go/datastore"
	"github.com/olivere/elastic/v7"

	"github.com/locvowork/fleet_management_sample/internal/database"
	"github.com/locvowork/fleet_management_sample/internal/domain"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit"
)

var errLimitReached = errors.New("limit reached")

// OrderScroller is satisfied by database.ElasticSearchClient.
type OrderScroller interface {
	ScrollOrders(ctx context.Context, query elastic.Query, size int, emit func(domain.Order) error) error
}

// CostIterator is satisfied by database.DatastoreClient.
type CostIterator interface {
	IterateCosts(ctx context.Context, q *datastore.Query, emit func(domain.CostEntry) error) error
}

// OrderSearchRepository streams full-text order matches from Elasticsearch.
type OrderSearchRepository struct {
	es         OrderScroller
	scrollSize int
}

func NewOrderSearchRepository(es OrderScroller, scrollSize int) *OrderSearchRepository {
	return &OrderSearchRepository{es: es, scrollSize: scrollSize}
}

// SearchOrders starts a scroll in the background. Batches are fetched only as
// fast as the sheet consumes them.
func (r *OrderSearchRepository) SearchOrders(ctx context.Context, filter domain.ExportFilter) (excelkit.RowSource, error) {
	query := database.OrderQuery(filter)
	limit := filter.Limit
	return produce(ctx, func(ctx context.Context, emit func(domain.Order) error) error {
		n := 0
		err := r.es.ScrollOrders(ctx, query, r.scrollSize, func(o domain.Order) error {
			if limit > 0 && n >= limit {
				return errLimitReached
			}
			n++
			return emit(o)
		})
		if errors.Is(err, errLimitReached) {
			return nil
		}
		return err
	}), nil
}

// CostRepository streams cost entries from Datastore.
type CostRepository struct {
	ds CostIterator
}

func NewCostRepository(ds CostIterator) *CostRepository {
	return &CostRepository{ds: ds}
}

func (r *CostRepository) StreamCosts(ctx context.Context, filter domain.ExportFilter) (excelkit.RowSource, error) {
	q := database.CostQuery(filter)
	return produce(ctx, func(ctx context.Context, emit func(domain.CostEntry) error) error {
		return r.ds.IterateCosts(ctx, q, emit)
	}), nil
}

var (
	_ domain.OrderSearcher  = (*OrderSearchRepository)(nil)
	_ domain.CostRepository = (*CostRepository)(nil)
)
