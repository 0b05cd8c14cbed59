package migrations

import "sync"

var entities struct {
	mu   sync.Mutex
	list []any
}

// RegisterEntity adds an entity struct to the model that migration add
// diffs against when no model file is given.
func RegisterEntity(entity any) {
	entities.mu.Lock()
	defer entities.mu.Unlock()
	entities.list = append(entities.list, entity)
}

// RegisteredEntities returns the registered entities in registration order.
func RegisteredEntities() []any {
	entities.mu.Lock()
	defer entities.mu.Unlock()
	return append([]any(nil), entities.list...)
}
