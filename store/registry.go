// Package store is a registry of Ledger backends.
//
// Each backend package registers a Factory in its init function,
// so importing it for side effects makes it available to Create:
//
//	import _ "github.com/hummearth/hive/store/sqlite3"
//
//	l, err := store.Create(ctx, "sqlite3", map[string]interface{}{"conn": "hive.db", "agent": "alice"})
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/hummearth/hive"
)

// Factory creates a Ledger from a configuration map,
// typically decoded from JSON.
type Factory func(context.Context, map[string]interface{}) (hive.Ledger, error)

var (
	mu       sync.Mutex
	registry = make(map[string]Factory)
)

// Register makes a Factory available under the given key.
func Register(key string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[key] = f
}

// Create calls the Factory registered under key.
func Create(ctx context.Context, key string, conf map[string]interface{}) (hive.Ledger, error) {
	mu.Lock()
	f, ok := registry[key]
	mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("key %s not found in registry", key)
	}
	return f(ctx, conf)
}

// Keys lists the registered keys in sorted order.
func Keys() []string {
	mu.Lock()
	defer mu.Unlock()
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Nested creates the Ledger described by the "nested" object in conf.
// Wrapping backends such as lru and logging use it.
func Nested(ctx context.Context, conf map[string]interface{}) (hive.Ledger, error) {
	nested, ok := conf["nested"].(map[string]interface{})
	if !ok {
		return nil, errors.New(`missing "nested" parameter`)
	}
	nestedType, ok := nested["type"].(string)
	if !ok {
		return nil, errors.New(`"nested" parameter missing "type"`)
	}
	l, err := Create(ctx, nestedType, nested)
	return l, errors.Wrap(err, "creating nested store")
}

// Agent reads the required "agent" parameter from conf.
func Agent(conf map[string]interface{}) (string, error) {
	agent, ok := conf["agent"].(string)
	if !ok || agent == "" {
		return "", errors.New(`missing "agent" parameter`)
	}
	return agent, nil
}
