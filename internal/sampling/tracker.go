package sampling

import (
	"context"
	"sync"

	"github.com/apex/log"

	"github.com/jengzang/heatmap-backend-go/internal/models"
)

// Tracker is the entry point for fixes reported by location sources.
// It remembers the latest reported position and gates the policy on the
// tracking switch.
type Tracker struct {
	policy *Policy

	mu       sync.RWMutex
	tracking bool
	current  *models.Fix
}

// TrackingStatus is a snapshot of the tracker state
type TrackingStatus struct {
	Tracking     bool        `json:"tracking"`
	CurrentFix   *models.Fix `json:"current_fix,omitempty"`
	LastAccepted *models.Fix `json:"last_accepted,omitempty"`
}

// NewTracker wraps a policy. Tracking starts enabled when enabled is true.
func NewTracker(policy *Policy, enabled bool) *Tracker {
	return &Tracker{policy: policy, tracking: enabled}
}

// Start enables processing of incoming fixes
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.tracking {
		log.Info("[Tracker] Tracking started")
	}
	t.tracking = true
}

// Stop disables processing; fixes received while stopped are ignored
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tracking {
		log.Info("[Tracker] Tracking stopped")
	}
	t.tracking = false
}

// IsTracking reports whether fixes are currently processed
func (t *Tracker) IsTracking() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tracking
}

// HandleFix records the fix as the current position and feeds it to the policy
func (t *Tracker) HandleFix(ctx context.Context, fix models.Fix) Decision {
	t.mu.Lock()
	tracking := t.tracking
	if tracking && fix.Valid() {
		f := fix
		t.current = &f
	}
	t.mu.Unlock()

	if !tracking {
		return Decision{Reason: ReasonNotTracking}
	}
	return t.policy.Process(ctx, fix)
}

// CurrentFix returns the latest valid fix reported while tracking
func (t *Tracker) CurrentFix() (models.Fix, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.current == nil {
		return models.Fix{}, false
	}
	return *t.current, true
}

// Status returns a snapshot of the tracker and policy state
func (t *Tracker) Status() TrackingStatus {
	status := TrackingStatus{Tracking: t.IsTracking()}
	if fix, ok := t.CurrentFix(); ok {
		status.CurrentFix = &fix
	}
	if last, ok := t.policy.LastAccepted(); ok {
		status.LastAccepted = &last
	}
	return status
}

// Subscribe registers a listener for accepted records
func (t *Tracker) Subscribe(l Listener) func() {
	return t.policy.Subscribe(l)
}
