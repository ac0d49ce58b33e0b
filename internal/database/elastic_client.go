package database

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olivere/elastic/v7"

	"github.com/locvowork/fleet_management_sample/internal/domain"
)

const defaultScrollSize = 1000

// ElasticSearchClient wraps olivere/elastic client.
type ElasticSearchClient struct {
	client *elastic.Client
	index  string
}

// NewElasticSearchClient creates a client for Elasticsearch 7.x serving the
// orders index.
func NewElasticSearchClient(url, index string) (*ElasticSearchClient, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false), // Essential when using Docker or cloud
		elastic.SetHealthcheck(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	return &ElasticSearchClient{client: client, index: index}, nil
}

// OrderQuery translates an export filter into a bool query.
func OrderQuery(filter domain.ExportFilter) elastic.Query {
	q := elastic.NewBoolQuery()
	if filter.Query != "" {
		q.Must(elastic.NewMultiMatchQuery(filter.Query, "code", "customer_name", "destination", "vehicle_plate"))
	}
	if filter.Status != "" {
		q.Filter(elastic.NewTermQuery("status", filter.Status))
	}
	if filter.CustomerID > 0 {
		q.Filter(elastic.NewTermQuery("customer_id", filter.CustomerID))
	}
	if !filter.From.IsZero() || !filter.To.IsZero() {
		r := elastic.NewRangeQuery("pickup_at")
		if !filter.From.IsZero() {
			r.Gte(filter.From)
		}
		if !filter.To.IsZero() {
			r.Lt(filter.To)
		}
		q.Filter(r)
	}
	return q
}

// ScrollOrders walks every order matching query, batch by batch, and hands
// each one to emit. It stops at the first emit error and clears the scroll
// context on the way out.
func (es *ElasticSearchClient) ScrollOrders(ctx context.Context, query elastic.Query, size int, emit func(domain.Order) error) error {
	if size <= 0 {
		size = defaultScrollSize
	}
	scroll := es.client.Scroll(es.index).
		Query(query).
		Size(size).
		KeepAlive("2m").
		Sort("_doc", true)
	defer scroll.Clear(context.Background())

	for {
		results, err := scroll.Do(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("scroll error: %w", err)
		}

		for _, hit := range results.Hits.Hits {
			var o domain.Order
			if err := json.Unmarshal(hit.Source, &o); err != nil {
				return fmt.Errorf("failed to unmarshal order %s: %w", hit.Id, err)
			}
			if err := emit(o); err != nil {
				return err
			}
		}
	}
}

// BulkIndexOrders indexes orders by id and refreshes the index so the next
// scroll sees them.
func (es *ElasticSearchClient) BulkIndexOrders(ctx context.Context, orders []domain.Order) error {
	bulkRequest := es.client.Bulk()
	for _, o := range orders {
		req := elastic.NewBulkIndexRequest().
			Index(es.index).
			Id(strconv.FormatInt(o.ID, 10)).
			Doc(o)
		bulkRequest = bulkRequest.Add(req)
	}

	if bulkRequest.NumberOfActions() == 0 {
		return nil
	}

	bulkResponse, err := bulkRequest.Refresh("true").Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk index failed: %w", err)
	}
	if failed := bulkResponse.Failed(); len(failed) > 0 {
		reason := "unknown"
		if failed[0].Error != nil {
			reason = failed[0].Error.Reason
		}
		return fmt.Errorf("bulk index: %d of %d orders failed, first: %s", len(failed), len(orders), reason)
	}
	return nil
}
