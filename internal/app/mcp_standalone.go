package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"panels/internal/config"
)

var errNoApprovalSurface = errors.New("mcp.confirm_destructive needs inbox.enabled when serving standalone: " +
	"destructive batches are decided by dropping <id>.approve or <id>.reject into the inbox")

// checkStandalone rejects configurations a standalone server cannot honour.
// Without a renderer the inbox is the only place a person can decide an
// approval request.
func checkStandalone(cfg config.Config) error {
	if cfg.MCP.ConfirmDestructive && !cfg.Inbox.Enabled {
		return errNoApprovalSurface
	}
	return nil
}

// ServeMCP runs the app as a standalone MCP server on stdin/stdout.
// It starts the configured surfaces and serves until stdin closes or the
// process is interrupted.
func ServeMCP(cfg config.Config) error {
	if err := checkStandalone(cfg); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := New(cfg)
	defer a.Shutdown(context.Background())
	if err := a.Startup(ctx); err != nil {
		return err
	}

	if cfg.Log.Debug {
		unsubscribe := a.Subscribe(func(event string, _ any) {
			log.Printf("panel: %s", event)
		})
		defer unsubscribe()
	}

	log.Println("[MCP] Starting standalone stdio server...")
	if err := a.mcp.ServeStdio(); err != nil {
		return fmt.Errorf("serve mcp: %w", err)
	}
	return nil
}
