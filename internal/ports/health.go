package ports

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrDuplicateChecker is returned when a checker name is registered twice.
var ErrDuplicateChecker = errors.New("duplicate health checker")

// HealthChecker reports whether one platform service is reachable.
type HealthChecker interface {
	// Name identifies the checked service in results.
	Name() string

	// Check returns nil when the service is reachable.
	Check(ctx context.Context) error
}

// HealthStatus is the outcome of a check or of a whole run.
type HealthStatus string

const (
	// HealthStatusHealthy indicates all checks passed.
	HealthStatusHealthy HealthStatus = "healthy"

	// HealthStatusUnhealthy indicates at least one check failed.
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResult aggregates one run of all registered checks.
type HealthResult struct {
	Status    HealthStatus   `json:"status"`
	Checks    []*CheckResult `json:"checks"`
	Timestamp time.Time      `json:"timestamp"`
}

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Name     string        `json:"name"`
	Status   HealthStatus  `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// HealthRegistry runs registered checkers concurrently.
type HealthRegistry struct {
	mu       sync.RWMutex
	checkers []HealthChecker

	// timeout bounds each individual check; zero means only ctx applies.
	timeout time.Duration
}

// NewHealthRegistry creates an empty registry. A positive timeout bounds
// every individual check.
func NewHealthRegistry(timeout time.Duration) *HealthRegistry {
	return &HealthRegistry{
		checkers: make([]HealthChecker, 0),
		timeout:  timeout,
	}
}

// Register adds a checker. Names must be unique.
func (r *HealthRegistry) Register(checker HealthChecker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	for _, c := range r.checkers {
		if c.Name() == name {
			return fmt.Errorf("%w: %s", ErrDuplicateChecker, name)
		}
	}

	r.checkers = append(r.checkers, checker)

	return nil
}

// CheckAll runs every checker concurrently. Results are sorted by name.
func (r *HealthRegistry) CheckAll(ctx context.Context) *HealthResult {
	r.mu.RLock()
	checkers := make([]HealthChecker, len(r.checkers))
	copy(checkers, r.checkers)
	r.mu.RUnlock()

	results := make([]*CheckResult, len(checkers))

	var wg sync.WaitGroup
	for i, checker := range checkers {
		wg.Go(func() {
			results[i] = r.run(ctx, checker)
		})
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	status := HealthStatusHealthy
	for _, res := range results {
		if res.Status == HealthStatusUnhealthy {
			status = HealthStatusUnhealthy
		}
	}

	return &HealthResult{
		Status:    status,
		Checks:    results,
		Timestamp: time.Now(),
	}
}

func (r *HealthRegistry) run(ctx context.Context, checker HealthChecker) *CheckResult {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	err := checker.Check(ctx)

	res := &CheckResult{
		Name:     checker.Name(),
		Status:   HealthStatusHealthy,
		Duration: time.Since(start),
	}
	if err != nil {
		res.Status = HealthStatusUnhealthy
		res.Message = err.Error()
	}

	return res
}
