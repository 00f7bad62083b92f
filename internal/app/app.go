package app

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"panels/internal/config"
	"panels/internal/domain"
	"panels/internal/inbox"
	mcpserver "panels/internal/mcp"
	"panels/internal/service"
)

// App owns the panel document and every surface attached to it: the MCP
// server, the inbox directory and the resync schedule.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    config.Config

	events *service.Broadcaster
	store  *service.PanelStore
	mcp    *mcpserver.Server
	inbox  *inbox.Watcher
	cron   *cron.Cron

	unwatchApprovals func()
}

// New creates a new App.
func New(cfg config.Config) *App {
	return &App{cfg: cfg}
}

// Startup builds the store and starts the configured surfaces. Call
// Shutdown even when Startup fails.
func (a *App) Startup(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)

	a.events = service.NewBroadcaster()
	a.store = service.NewPanelStore(a.ctx, a.cfg.History.MaxDepth, a.events)
	a.store.SetDebug(a.cfg.Log.Debug)

	a.mcp = mcpserver.New(a.ctx, mcpserver.Deps{
		Emitter:            a.events,
		Store:              a.store,
		Name:               a.cfg.MCP.Name,
		Version:            a.cfg.MCP.Version,
		ConfirmDestructive: a.cfg.MCP.ConfirmDestructive,
		ApprovalTimeout:    a.cfg.MCP.ApprovalTimeout,
	})

	if a.cfg.Inbox.Enabled {
		w, err := inbox.New(a.cfg.Inbox.Dir, a.cfg.Inbox.Debounce, a.store)
		if err != nil {
			return fmt.Errorf("start inbox: %w", err)
		}
		a.inbox = w
		w.SetApprover(a.mcp)
		a.unwatchApprovals = a.events.Subscribe(publishApprovals(w))
		w.Start(a.ctx)
	}

	if spec := a.cfg.Publish.ResyncSchedule; spec != "" {
		c := cron.New()
		if _, err := c.AddFunc(spec, func() {
			if a.cfg.Log.Debug {
				log.Printf("panel cron: resync")
			}
			a.store.Republish()
		}); err != nil {
			return fmt.Errorf("invalid resync schedule %q: %w", spec, err)
		}
		c.Start()
		a.cron = c
		log.Printf("panel cron: resync scheduled %q", spec)
	}
	return nil
}

// Shutdown stops the schedule and the inbox and cancels pending approvals.
func (a *App) Shutdown(ctx context.Context) {
	if a.cron != nil {
		select {
		case <-a.cron.Stop().Done():
		case <-ctx.Done():
		}
		a.cron = nil
	}
	if a.unwatchApprovals != nil {
		a.unwatchApprovals()
		a.unwatchApprovals = nil
	}
	if a.inbox != nil {
		if err := a.inbox.Close(); err != nil {
			log.Printf("inbox: close: %v", err)
		}
		a.inbox = nil
	}
	if a.cancel != nil {
		a.cancel()
	}
}

// publishApprovals mirrors the approval queue into the inbox directory so
// requests can be decided with drop files.
func publishApprovals(w *inbox.Watcher) service.Listener {
	return func(event string, data any) {
		switch event {
		case mcpserver.EventApprovalRequired:
			if p, ok := data.(mcpserver.PendingAction); ok {
				if err := w.WritePending(p.ID, p); err != nil {
					log.Printf("inbox: %v", err)
				}
			}
		case mcpserver.EventApprovalDismissed:
			if m, ok := data.(map[string]string); ok {
				if err := w.RemovePending(m["id"]); err != nil {
					log.Printf("inbox: %v", err)
				}
			}
		}
	}
}

// ============================================================
// Observation
// ============================================================

// Subscribe registers a renderer for store and approval events.
func (a *App) Subscribe(l service.Listener) (unsubscribe func()) {
	return a.events.Subscribe(l)
}

// Republish sends the whole tree to every subscriber.
func (a *App) Republish() {
	a.store.Republish()
}

// ============================================================
// Panel document
// ============================================================

// HandleMessage parses one agent message and applies its actions.
func (a *App) HandleMessage(raw any) (applied int, ok bool) {
	return a.store.HandleMessage(raw)
}

func (a *App) GetPanelState() domain.PanelState {
	return a.store.State()
}

func (a *App) GetSnapshot() domain.Snapshot {
	return a.store.Snapshot()
}

// ============================================================
// Approvals
// ============================================================

func (a *App) PendingApprovals() []mcpserver.PendingAction {
	return a.mcp.Pending()
}

func (a *App) ApproveAction(id string) {
	a.mcp.Approve(id)
}

func (a *App) RejectAction(id string) {
	a.mcp.Reject(id)
}
