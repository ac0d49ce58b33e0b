package database

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"

	"github.com/locvowork/fleet_management_sample/internal/domain"
)

const (
	costEntryKind = "CostEntry"
	// maxPutMulti is the datastore limit on entities per commit.
	maxPutMulti = 500
)

var errNilDatastore = errors.New("datastore client is nil")

// DatastoreClient wraps the cloud datastore client
type DatastoreClient struct {
	client *datastore.Client
}

// NewDatastoreClient connects to the given project. Credentials and the
// emulator host come from the environment.
func NewDatastoreClient(ctx context.Context, projectID string) (*DatastoreClient, error) {
	client, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore client: %w", err)
	}
	return &DatastoreClient{client: client}, nil
}

// WrapDatastoreClient wraps existing datastore client
func WrapDatastoreClient(client *datastore.Client) *DatastoreClient {
	if client == nil {
		return nil
	}
	return &DatastoreClient{client: client}
}

// CostQuery translates an export filter into a CostEntry query ordered by
// incurred time.
func CostQuery(filter domain.ExportFilter) *datastore.Query {
	q := datastore.NewQuery(costEntryKind)
	if !filter.From.IsZero() {
		q = q.FilterField("IncurredAt", ">=", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.FilterField("IncurredAt", "<", filter.To)
	}
	if filter.Category != "" {
		q = q.FilterField("Category", "=", filter.Category)
	}
	q = q.Order("IncurredAt")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	return q
}

// IterateCosts runs q and hands every entry to emit without loading the full
// result.
func (dc *DatastoreClient) IterateCosts(ctx context.Context, q *datastore.Query, emit func(domain.CostEntry) error) error {
	if dc == nil || dc.client == nil {
		return errNilDatastore
	}

	it := dc.client.Run(ctx, q)
	for {
		var e domain.CostEntry
		_, err := it.Next(&e)
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("cost iterator: %w", err)
		}
		if err := emit(e); err != nil {
			return err
		}
	}
}

// SaveCosts stores cost entries in commits of at most maxPutMulti. Keys are
// derived from the plate, the incurred time and the sequence number firstSeq
// plus the position in costs, so saving the same data twice overwrites.
func (dc *DatastoreClient) SaveCosts(ctx context.Context, costs []domain.CostEntry, firstSeq int) error {
	if dc == nil || dc.client == nil {
		return errNilDatastore
	}

	for start := 0; start < len(costs); start += maxPutMulti {
		end := min(start+maxPutMulti, len(costs))
		batch := costs[start:end]
		keys := make([]*datastore.Key, len(batch))
		for i := range batch {
			keys[i] = CostKey(batch[i], firstSeq+start+i)
		}
		if _, err := dc.client.PutMulti(ctx, keys, batch); err != nil {
			return fmt.Errorf("save costs %d-%d: %w", firstSeq+start, firstSeq+end, err)
		}
	}
	return nil
}

// CostKey names a cost entry after its vehicle, time and sequence number.
func CostKey(c domain.CostEntry, seq int) *datastore.Key {
	return datastore.NameKey(costEntryKind,
		fmt.Sprintf("%s-%d-%d", c.VehiclePlate, c.IncurredAt.Unix(), seq),
		nil)
}

func (dc *DatastoreClient) Close() error {
	if dc == nil || dc.client == nil {
		return nil
	}
	return dc.client.Close()
}
