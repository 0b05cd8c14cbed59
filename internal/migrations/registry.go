package migrations

import (
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/shepherrrd/efmigrate/internal/models"
)

// Migration is implemented by generated migration types: the user file
// supplies Up and Down, the designer file the identity and model snapshots,
// and the embedded DbMigration the rest.
type Migration interface {
	ID() string
	// Source returns the encoded model before the migration, or "".
	Source() string
	// Target returns the encoded model after the migration.
	Target() string
	Up()
	Down()
	Operations() []models.MigrationOperation
	Err() error
	Reset()
}

// IDLayout is the timestamp prefix of a migration ID.
const IDLayout = "20060102150405"

var idPattern = regexp.MustCompile(`^\d{14}_.+$`)

// NewID returns the ID of a migration named name created at t.
func NewID(name string, t time.Time) string {
	return t.UTC().Format(IDLayout) + "_" + name
}

// ValidID reports whether id has the YYYYMMDDHHMMSS_Name form.
func ValidID(id string) bool { return idPattern.MatchString(id) }

// NameOf returns the name part of a migration ID.
func NameOf(id string) string {
	if !ValidID(id) {
		return id
	}
	return id[len(IDLayout)+1:]
}

// Registry holds migrations by ID.
type Registry struct {
	mu         sync.RWMutex
	migrations map[string]Migration
}

func NewRegistry() *Registry {
	return &Registry{migrations: make(map[string]Migration)}
}

// Add registers a migration. Registering the same ID twice is an error.
func (r *Registry) Add(m Migration) error {
	if m == nil {
		return &models.ArgumentError{Param: "migration", Reason: "migration is nil"}
	}
	id := m.ID()
	if err := models.CheckNotEmpty(id, "id"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.migrations[id]; exists {
		return fmt.Errorf("migration %s is already registered", id)
	}
	r.migrations[id] = m
	return nil
}

// Get returns the migration with the given ID.
func (r *Registry) Get(id string) (Migration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.migrations[id]
	return m, ok
}

// All returns the registered migrations sorted by ID.
func (r *Registry) All() []Migration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Migration, 0, len(r.migrations))
	for _, m := range r.migrations {
		all = append(all, m)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID() < all[j].ID() })
	return all
}

var defaultRegistry = NewRegistry()

// Register adds m to the process-wide registry. Generated designer files call
// it from init, so a duplicate ID panics.
func Register(m Migration) {
	if err := defaultRegistry.Add(m); err != nil {
		panic(err)
	}
}

// Registered returns the migrations added with Register, sorted by ID.
func Registered() []Migration {
	return defaultRegistry.All()
}

// DefaultRegistry returns the registry Register writes to.
func DefaultRegistry() *Registry { return defaultRegistry }
