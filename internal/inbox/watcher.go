// Package inbox turns a drop directory into a message source: every *.json
// file written there is one inbound agent message.
//
// The same directory settles approval requests. A request waiting for a
// decision is published as <id>.pending; dropping an empty <id>.approve or
// <id>.reject file decides it.
package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// DoneSuffix is appended to files that carried at least one panel action.
	DoneSuffix = ".done"
	// RejectedSuffix is appended to files that carried none.
	RejectedSuffix = ".rejected"

	// ApproveSuffix and RejectSuffix name decision files: <id>.approve.
	ApproveSuffix = ".approve"
	RejectSuffix  = ".reject"
	// PendingSuffix names the published copy of a waiting request.
	PendingSuffix = ".pending"

	messageExt = ".json"
)

// Approver settles approval requests by id. *mcpserver.Server satisfies it.
type Approver interface {
	Approve(id string)
	Reject(id string)
}

// Handler consumes one raw message. ok reports whether it carried a panel
// action. *service.PanelStore satisfies it.
type Handler interface {
	HandleMessage(raw any) (applied int, ok bool)
}

// Watcher feeds files dropped into a directory to a Handler.
type Watcher struct {
	dir      string
	debounce time.Duration
	handler  Handler

	watcher *fsnotify.Watcher
	guard   inFlightGuard

	mu       sync.Mutex
	approver Approver
	timers   map[string]*time.Timer
	cancel context.CancelFunc
	loop   chan struct{}
}

// New creates the directory if needed and starts watching it. Call Start to
// begin processing.
func New(dir string, debounce time.Duration, h Handler) (*Watcher, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve inbox dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, fmt.Errorf("create inbox dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(absDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", absDir, err)
	}
	return &Watcher{
		dir:      absDir,
		debounce: debounce,
		handler:  h,
		watcher:  watcher,
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Dir returns the absolute path being watched.
func (w *Watcher) Dir() string { return w.dir }

// SetApprover routes decision files to a. Without one they are left in
// place.
func (w *Watcher) SetApprover(a Approver) {
	w.mu.Lock()
	w.approver = a
	w.mu.Unlock()
}

// Start processes files already waiting in the directory, then handles new
// ones until ctx is cancelled or Close is called. Pending files left by an
// earlier run are removed: their requests can no longer be decided.
func (w *Watcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.loop = make(chan struct{})
	w.mu.Unlock()

	stale, _ := filepath.Glob(filepath.Join(w.dir, "*"+PendingSuffix))
	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			log.Printf("inbox: remove stale %s: %v", filepath.Base(path), err)
		}
	}
	for _, ext := range []string{messageExt, ApproveSuffix, RejectSuffix} {
		waiting, err := filepath.Glob(filepath.Join(w.dir, "*"+ext))
		if err != nil {
			log.Printf("inbox: list waiting: %v", err)
		}
		for _, path := range waiting {
			w.Process(path)
		}
	}

	go w.watchLoop(ctx)
	log.Printf("inbox: watching %s", w.dir)
}

// Close stops the watcher and waits briefly for in-flight files.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	loop := w.loop
	w.mu.Unlock()

	err := w.watcher.Close()
	if loop != nil {
		<-loop
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w.guard.WaitAll(ctx)
	return err
}

// Process handles one file immediately. A message file goes to the handler
// and is renamed with DoneSuffix or RejectedSuffix; a decision file goes to
// the approver and is removed along with its pending file. A file that is
// already being handled, or has vanished, is skipped.
func (w *Watcher) Process(path string) {
	if !w.guard.TryLock(path) {
		return
	}
	defer w.guard.Unlock(path)

	switch filepath.Ext(path) {
	case messageExt:
		w.processMessage(path)
	case ApproveSuffix, RejectSuffix:
		w.processDecision(path)
	}
}

func (w *Watcher) processMessage(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("inbox: read %s: %v", path, err)
		}
		return
	}

	applied, ok := w.handler.HandleMessage(data)
	suffix := DoneSuffix
	if !ok {
		suffix = RejectedSuffix
		log.Printf("inbox: %s carried no panel action", filepath.Base(path))
	} else {
		log.Printf("inbox: %s applied %d action(s)", filepath.Base(path), applied)
	}
	if err := os.Rename(path, path+suffix); err != nil {
		log.Printf("inbox: rename %s: %v", path, err)
	}
}

func (w *Watcher) processDecision(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	w.mu.Lock()
	approver := w.approver
	w.mu.Unlock()
	if approver == nil {
		log.Printf("inbox: no approver for %s", filepath.Base(path))
		return
	}

	ext := filepath.Ext(path)
	id := strings.TrimSuffix(filepath.Base(path), ext)
	if ext == ApproveSuffix {
		approver.Approve(id)
	} else {
		approver.Reject(id)
	}
	log.Printf("inbox: %s %s", strings.TrimPrefix(ext, "."), id)

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("inbox: remove %s: %v", path, err)
	}
	if err := w.RemovePending(id); err != nil {
		log.Printf("inbox: %v", err)
	}
}

var errBadID = errors.New("approval id must be a plain file name")

// WritePending publishes v as <id>.pending so a person can decide it.
func (w *Watcher) WritePending(id string, v any) error {
	if id == "" || filepath.Base(id) != id {
		return errBadID
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal pending %s: %w", id, err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, id+PendingSuffix), data, 0o644); err != nil {
		return fmt.Errorf("write pending %s: %w", id, err)
	}
	return nil
}

// RemovePending deletes <id>.pending. A missing file is not an error.
func (w *Watcher) RemovePending(id string) error {
	if id == "" || filepath.Base(id) != id {
		return errBadID
	}
	err := os.Remove(filepath.Join(w.dir, id+PendingSuffix))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove pending %s: %w", id, err)
	}
	return nil
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.loop)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !watched(event.Name) {
				continue
			}
			absPath, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			w.schedule(ctx, absPath)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("inbox: watcher error: %v", err)
		}
	}
}

// schedule (re)arms the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, exists := w.timers[path]; exists {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.timers[path] == t {
			delete(w.timers, path)
		}
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		w.Process(path)
	})
	w.timers[path] = t
}

func watched(name string) bool {
	switch filepath.Ext(name) {
	case messageExt, ApproveSuffix, RejectSuffix:
		return true
	}
	return false
}
