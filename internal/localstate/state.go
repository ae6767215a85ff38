package localstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"dbdhistory/internal/bhvr"

	"github.com/samber/lo"
)

const (
	// OfflineCacheKey is where the host page persists its query cache
	OfflineCacheKey = "REACT_QUERY_OFFLINE_CACHE"

	// MatchHistoryQueryKey is the first element of the cached match-history query key
	MatchHistoryQueryKey = "stats.match-history"
)

var (
	ErrNotFound     = errors.New("key not found")
	ErrPathNotFound = errors.New("path not found in stored value")
)

// Reader gives read-only access to the page's persisted key/value state.
// Nothing in this module ever writes to it.
type Reader interface {
	Get(key string) (string, error)
}

// Map is an in-memory Reader, used for session state and in tests
type Map struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMap creates a Map holding a copy of values
func NewMap(values map[string]string) *Map {
	m := &Map{values: make(map[string]string, len(values))}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

func (m *Map) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores a value. It exists for the host side of tests; the pipeline never calls it.
func (m *Map) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// ReadToken reads the JSON blob at key and follows a dotted path (e.g. "state.accessToken")
// down to a string value.
func ReadToken(r Reader, key, path string) (string, error) {
	raw, err := r.Get(key)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}

	var node any
	if err := json.Unmarshal([]byte(raw), &node); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", key, err)
	}

	for _, part := range strings.Split(path, ".") {
		if part == "" {
			continue
		}
		obj, ok := node.(map[string]any)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		if node, ok = obj[part]; !ok {
			return "", fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
	}

	token, ok := node.(string)
	if !ok || token == "" {
		return "", fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	return token, nil
}

// offlineCache is the subset of the persisted query cache we care about
type offlineCache struct {
	ClientState struct {
		Queries []cachedQuery `json:"queries"`
	} `json:"clientState"`
}

type cachedQuery struct {
	QueryKey []json.RawMessage `json:"queryKey"`
	State    struct {
		Data json.RawMessage `json:"data"`
	} `json:"state"`
}

func (q cachedQuery) isMatchHistory() bool {
	if len(q.QueryKey) == 0 {
		return false
	}
	var first string
	if err := json.Unmarshal(q.QueryKey[0], &first); err != nil {
		return false
	}
	return first == MatchHistoryQueryKey
}

// ExtractCachedMatches pulls the match list out of the host page's persisted query cache.
// A missing cache or a cache without match history returns no entries and no error.
func ExtractCachedMatches(r Reader) ([]bhvr.MatchEntry, error) {
	raw, err := r.Get(OfflineCacheKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cache offlineCache
	if err := json.Unmarshal([]byte(raw), &cache); err != nil {
		return nil, fmt.Errorf("failed to parse offline cache: %w", err)
	}

	query, ok := lo.Find(cache.ClientState.Queries, cachedQuery.isMatchHistory)
	if !ok || len(query.State.Data) == 0 || string(query.State.Data) == "null" {
		return nil, nil
	}

	return bhvr.ParseMatchList(query.State.Data)
}
