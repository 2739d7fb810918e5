package people

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"peoplebot/internal/models"
)

// DefaultTTL is how long a snapshot stays fresh before the next report
// triggers a rebuild.
const DefaultTTL = 30 * time.Minute

// Fetcher is the slice of the HR client the cache depends on.
type Fetcher interface {
	FetchEmployees(ctx context.Context) ([]models.Employee, error)
	FetchLeaves(ctx context.Context, ref time.Time) (map[string][]models.Leave, error)
	FetchHolidays(ctx context.Context, ref time.Time) (map[string][]models.Holiday, error)
}

// Cache owns the current HR snapshot and its expiry. A rebuild fetches
// employees, leaves and holidays, derives the per-employee holiday lists
// and the birthdays-today index once, and swaps the snapshot in as a
// whole. The rebuild is behind a mutex so concurrent triggers cause
// exactly one round of remote calls.
type Cache struct {
	logger *slog.Logger
	client Fetcher
	ttl    time.Duration
	now    func() time.Time

	mu       sync.Mutex
	snapshot atomic.Pointer[models.Snapshot]
	expire   atomic.Int64 // unix nanos; zero means never built
}

// NewCache creates a cache over the given client. A non-positive ttl
// selects DefaultTTL.
func NewCache(logger *slog.Logger, client Fetcher, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		logger: logger,
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

// IsValid reports whether the current snapshot is still within its TTL.
func (c *Cache) IsValid() bool {
	return c.now().UnixNano() < c.expire.Load()
}

// Snapshot returns the last built snapshot, or nil before the first
// successful EnsureFresh.
func (c *Cache) Snapshot() *models.Snapshot {
	return c.snapshot.Load()
}

// EnsureFresh is a no-op while the snapshot is valid and otherwise
// performs a full rebuild. There is no partial refresh; a failed rebuild
// leaves the previous snapshot and expiry untouched.
func (c *Cache) EnsureFresh(ctx context.Context) error {
	if c.IsValid() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// Another trigger may have rebuilt while we waited on the lock.
	if c.IsValid() {
		return nil
	}

	snapshot, err := c.rebuild(ctx)
	if err != nil {
		return err
	}
	c.snapshot.Store(snapshot)
	c.expire.Store(c.now().Add(c.ttl).UnixNano())
	c.logger.Info("People cache rebuilt.", "employees", len(snapshot.Employees), "ttl", c.ttl)
	return nil
}

func (c *Cache) rebuild(ctx context.Context) (*models.Snapshot, error) {
	now := c.now()

	employees, err := c.client.FetchEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching employees: %w", err)
	}
	leaves, err := c.client.FetchLeaves(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("fetching leaves: %w", err)
	}
	locationHolidays, err := c.client.FetchHolidays(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("fetching holidays: %w", err)
	}

	holidays := make(map[string][]models.Holiday)
	birthdays := make(map[string]models.Employee)
	for _, employee := range employees {
		if hs, ok := locationHolidays[employee.LocationID]; ok && employee.LocationID != "" {
			holidays[employee.Key] = append(holidays[employee.Key], hs...)
		}
		if employee.BirthMonth == now.Month() && employee.BirthDay == now.Day() {
			birthdays[employee.Key] = employee
		}
	}

	return &models.Snapshot{
		Employees:      employees,
		Leaves:         leaves,
		Holidays:       holidays,
		BirthdaysToday: birthdays,
	}, nil
}
