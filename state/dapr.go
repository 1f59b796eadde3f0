package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	dapr "github.com/dapr/go-sdk/client"
	"github.com/rs/zerolog/log"

	"github.com/cityzenmag/socialhub/model"
)

const indexKey = "syncstatus-index"

// DaprStore persists sync statuses in a Dapr state store so multiple
// aggregator instances share one view. A platform index key is maintained
// alongside the per-platform records because Dapr state stores cannot
// enumerate keys.
type DaprStore struct {
	client    dapr.Client
	storeName string
	mu        sync.Mutex
}

// NewDaprStore connects to the Dapr sidecar and uses the named state store.
func NewDaprStore(storeName string) (*DaprStore, error) {
	client, err := dapr.NewClient()
	if err != nil {
		return nil, fmt.Errorf("creating Dapr client: %w", err)
	}

	log.Info().Str("store", storeName).Msg("Connected to Dapr state store")
	return &DaprStore{client: client, storeName: storeName}, nil
}

func statusKey(p model.Platform) string {
	return "syncstatus-" + string(p)
}

// Save implements Store.
func (s *DaprStore) Save(ctx context.Context, status model.SyncStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshaling sync status: %w", err)
	}
	if err := s.client.SaveState(ctx, s.storeName, statusKey(status.Platform), data, nil); err != nil {
		return fmt.Errorf("saving sync status for %s: %w", status.Platform, err)
	}

	index, err := s.loadIndex(ctx)
	if err != nil {
		return err
	}
	for _, p := range index {
		if p == status.Platform {
			return nil
		}
	}
	return s.saveIndex(ctx, append(index, status.Platform))
}

// Get implements Store.
func (s *DaprStore) Get(ctx context.Context, p model.Platform) (model.SyncStatus, bool, error) {
	item, err := s.client.GetState(ctx, s.storeName, statusKey(p), nil)
	if err != nil {
		return model.SyncStatus{}, false, fmt.Errorf("loading sync status for %s: %w", p, err)
	}
	if len(item.Value) == 0 {
		return model.SyncStatus{}, false, nil
	}

	var status model.SyncStatus
	if err := json.Unmarshal(item.Value, &status); err != nil {
		return model.SyncStatus{}, false, fmt.Errorf("unmarshaling sync status for %s: %w", p, err)
	}
	return status, true, nil
}

// All implements Store.
func (s *DaprStore) All(ctx context.Context) (map[model.Platform]model.SyncStatus, error) {
	index, err := s.loadIndex(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[model.Platform]model.SyncStatus, len(index))
	for _, p := range index {
		status, ok, err := s.Get(ctx, p)
		if err != nil {
			return nil, err
		}
		if ok {
			out[p] = status
		}
	}
	return out, nil
}

// Delete implements Store.
func (s *DaprStore) Delete(ctx context.Context, p model.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.client.DeleteState(ctx, s.storeName, statusKey(p), nil); err != nil {
		return fmt.Errorf("deleting sync status for %s: %w", p, err)
	}

	index, err := s.loadIndex(ctx)
	if err != nil {
		return err
	}
	filtered := index[:0]
	for _, existing := range index {
		if existing != p {
			filtered = append(filtered, existing)
		}
	}
	return s.saveIndex(ctx, filtered)
}

// Close releases the Dapr client connection.
func (s *DaprStore) Close() {
	s.client.Close()
}

func (s *DaprStore) loadIndex(ctx context.Context) ([]model.Platform, error) {
	item, err := s.client.GetState(ctx, s.storeName, indexKey, nil)
	if err != nil {
		return nil, fmt.Errorf("loading sync status index: %w", err)
	}
	if len(item.Value) == 0 {
		return nil, nil
	}

	var index []model.Platform
	if err := json.Unmarshal(item.Value, &index); err != nil {
		return nil, fmt.Errorf("unmarshaling sync status index: %w", err)
	}
	return index, nil
}

func (s *DaprStore) saveIndex(ctx context.Context, index []model.Platform) error {
	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("marshaling sync status index: %w", err)
	}
	if err := s.client.SaveState(ctx, s.storeName, indexKey, data, nil); err != nil {
		return fmt.Errorf("saving sync status index: %w", err)
	}
	return nil
}
