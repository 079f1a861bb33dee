// Package sampling decides which raw position fixes become visit records.
package sampling

import (
	"context"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"github.com/jengzang/heatmap-backend-go/internal/metrics"
	"github.com/jengzang/heatmap-backend-go/internal/models"
	"github.com/jengzang/heatmap-backend-go/internal/spatial"
)

// Decision reasons
const (
	ReasonFirstFix    = "first_fix"
	ReasonMoved       = "moved"
	ReasonElapsed     = "elapsed"
	ReasonTooClose    = "too_close"
	ReasonInvalidFix  = "invalid_fix"
	ReasonStoreFailed = "store_failed"
	ReasonNotTracking = "not_tracking"
)

// Store persists accepted visit records
type Store interface {
	Insert(ctx context.Context, record *models.VisitRecord) error
}

// Clock returns the current time
type Clock func() time.Time

// PolicyConfig holds the sampling thresholds
type PolicyConfig struct {
	MinDistanceMeters float64       // Accept when moved further than this
	MinInterval       time.Duration // Accept when this much time has passed
	MaxGap            time.Duration // Longer gaps are not attributed as dwell time
}

// DefaultPolicyConfig returns the standard thresholds: 100m, 5 minutes, 30 minutes
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		MinDistanceMeters: 100,
		MinInterval:       300 * time.Second,
		MaxGap:            1800 * time.Second,
	}
}

// Decision is the outcome of processing one fix
type Decision struct {
	Accepted bool                `json:"accepted"`
	Reason   string              `json:"reason"`
	Record   *models.VisitRecord `json:"record,omitempty"`
}

// Listener is notified after a visit record has been persisted
type Listener func(record models.VisitRecord)

// Policy owns the last accepted fix and serializes all decisions.
// The zero value is not usable, create one with NewPolicy.
type Policy struct {
	cfg   PolicyConfig
	store Store
	clock Clock

	mu           sync.Mutex
	hasAccepted  bool
	lastPosition models.Fix // Timestamp holds lastAcceptedTime

	listenersMu sync.RWMutex
	listeners   map[int]Listener
	nextID      int
}

// NewPolicy creates a sampling policy writing to store.
// A nil clock falls back to time.Now. MaxGap is capped at the largest
// duration a visit record may carry.
func NewPolicy(cfg PolicyConfig, store Store, clock Clock) *Policy {
	if clock == nil {
		clock = time.Now
	}
	if limit := time.Duration(models.MaxVisitDurationSeconds) * time.Second; cfg.MaxGap < 0 || cfg.MaxGap > limit {
		log.Warnf("[SamplingPolicy] Max gap %s out of range, using %s", cfg.MaxGap, limit)
		cfg.MaxGap = limit
	}
	return &Policy{
		cfg:       cfg,
		store:     store,
		clock:     clock,
		listeners: make(map[int]Listener),
	}
}

// Process runs the acceptance test for one fix and persists it when accepted.
// Calls are serialized; state only advances after a successful insert.
func (p *Policy) Process(ctx context.Context, fix models.Fix) Decision {
	if !fix.Valid() {
		metrics.FixRejected(ReasonInvalidFix)
		return Decision{Reason: ReasonInvalidFix}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := fix.Timestamp
	if now.IsZero() {
		now = p.clock()
	}
	// Stored with millisecond precision
	now = now.UTC().Truncate(time.Millisecond)

	accept, reason, gap := p.evaluate(fix, now)
	if !accept {
		metrics.FixRejected(reason)
		return Decision{Reason: reason}
	}

	record := &models.VisitRecord{
		ID:        uuid.NewString(),
		Latitude:  fix.Latitude,
		Longitude: fix.Longitude,
		Timestamp: now,
		Duration:  gap.Seconds(),
	}

	if err := p.store.Insert(ctx, record); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"lat": fix.Latitude,
			"lng": fix.Longitude,
		}).Warn("[SamplingPolicy] Failed to save visit record, dropping fix")
		metrics.StoreFailed()
		return Decision{Reason: ReasonStoreFailed}
	}

	p.hasAccepted = true
	p.lastPosition = models.Fix{Latitude: fix.Latitude, Longitude: fix.Longitude, Timestamp: now}
	metrics.FixAccepted(reason)

	p.notify(*record)
	return Decision{Accepted: true, Reason: reason, Record: record}
}

// evaluate applies the acceptance test and computes the dwell gap
func (p *Policy) evaluate(fix models.Fix, now time.Time) (bool, string, time.Duration) {
	if !p.hasAccepted {
		return true, ReasonFirstFix, 0
	}

	elapsed := now.Sub(p.lastPosition.Timestamp)
	if elapsed < 0 {
		// Reference lies in the future (skewed or out-of-order source): re-anchor
		return true, ReasonElapsed, 0
	}

	gap := elapsed
	if gap > p.cfg.MaxGap {
		gap = 0
	}

	distance := spatial.HaversineDistance(p.lastPosition.Latitude, p.lastPosition.Longitude, fix.Latitude, fix.Longitude)
	switch {
	case distance > p.cfg.MinDistanceMeters:
		return true, ReasonMoved, gap
	case elapsed > p.cfg.MinInterval:
		return true, ReasonElapsed, gap
	default:
		return false, ReasonTooClose, 0
	}
}

// LastAccepted returns the most recently persisted fix
func (p *Policy) LastAccepted() (models.Fix, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastPosition, p.hasAccepted
}

// Subscribe registers a listener for accepted records and returns a function
// removing it. Listeners run synchronously inside Process and must not call
// back into the policy.
func (p *Policy) Subscribe(l Listener) func() {
	p.listenersMu.Lock()
	defer p.listenersMu.Unlock()

	id := p.nextID
	p.nextID++
	p.listeners[id] = l

	return func() {
		p.listenersMu.Lock()
		delete(p.listeners, id)
		p.listenersMu.Unlock()
	}
}

func (p *Policy) notify(record models.VisitRecord) {
	p.listenersMu.RLock()
	defer p.listenersMu.RUnlock()
	for _, l := range p.listeners {
		l(record)
	}
}
