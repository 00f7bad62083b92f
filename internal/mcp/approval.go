package mcpserver

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventApprovalRequired  = "panel:approval-required"
	EventApprovalDismissed = "panel:approval-dismissed"

	defaultApprovalTimeout = 120 * time.Second
)

// EventEmitter allows the approval queue to notify the renderer.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// PendingAction represents a destructive batch awaiting user approval.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	Metadata    string `json:"metadata"` // JSON with extra context (e.g. action kinds)
}

// actionResult is sent through the channel when user approves/rejects.
type actionResult struct {
	approved bool
}

type pendingEntry struct {
	info PendingAction
	ch   chan actionResult
}

// ApprovalQueue manages human-in-the-loop approval for destructive MCP tool calls.
// Requests block until Approve, Reject, the timeout, or ctx cancellation.
type ApprovalQueue struct {
	mu      sync.Mutex
	pending map[string]pendingEntry
	ctx     context.Context
	emitter EventEmitter
	timeout time.Duration
}

// NewApprovalQueue creates a queue. A non-positive timeout uses the default.
func NewApprovalQueue(ctx context.Context, emitter EventEmitter, timeout time.Duration) *ApprovalQueue {
	if timeout <= 0 {
		timeout = defaultApprovalTimeout
	}
	return &ApprovalQueue{
		pending: make(map[string]pendingEntry),
		ctx:     ctx,
		emitter: emitter,
		timeout: timeout,
	}
}

// Request sends an approval request and blocks until approved/rejected.
// metadata is optional JSON with extra context for the renderer. However the
// request ends, EventApprovalDismissed follows so listeners can clear it.
func (q *ApprovalQueue) Request(tool, description string, metadata ...string) (bool, error) {
	id := uuid.New().String()
	meta := "{}"
	if len(metadata) > 0 && metadata[0] != "" {
		meta = metadata[0]
	}

	info := PendingAction{
		ID:          id,
		Tool:        tool,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Metadata:    meta,
	}
	ch := make(chan actionResult, 1)

	q.mu.Lock()
	q.pending[id] = pendingEntry{info: info, ch: ch}
	q.mu.Unlock()
	defer func() {
		q.cleanup(id)
		q.emitter.Emit(q.ctx, EventApprovalDismissed, map[string]string{"id": id})
	}()

	q.emitter.Emit(q.ctx, EventApprovalRequired, info)

	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	select {
	case result := <-ch:
		if !result.approved {
			return false, fmt.Errorf("action rejected by user: %s", tool)
		}
		return true, nil
	case <-timer.C:
		return false, fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
	case <-q.ctx.Done():
		return false, fmt.Errorf("approval for %s: %w", tool, q.ctx.Err())
	}
}

// Approve marks a pending action as approved.
func (q *ApprovalQueue) Approve(actionID string) {
	q.resolve(actionID, true)
}

// Reject marks a pending action as rejected.
func (q *ApprovalQueue) Reject(actionID string) {
	q.resolve(actionID, false)
}

// Pending returns the waiting requests, oldest first.
func (q *ApprovalQueue) Pending() []PendingAction {
	q.mu.Lock()
	out := make([]PendingAction, 0, len(q.pending))
	for _, e := range q.pending {
		out = append(out, e.info)
	}
	q.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (q *ApprovalQueue) resolve(actionID string, approved bool) {
	q.mu.Lock()
	e, ok := q.pending[actionID]
	q.mu.Unlock()
	if !ok {
		return
	}
	select {
	case e.ch <- actionResult{approved: approved}:
	default: // already decided
	}
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
