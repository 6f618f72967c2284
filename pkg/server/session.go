package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/loomui/loom/pkg/loom"
	"github.com/loomui/loom/pkg/middleware"
	"github.com/loomui/loom/pkg/protocol"
	"github.com/loomui/loom/pkg/store"
	"github.com/loomui/loom/pkg/vdom"
)

// Session owns one scheduler root for one connected client. All event
// dispatch for a session runs under its turn lock, so renders and effect
// phases stay single-threaded per root the way the kernel requires.
type Session struct {
	// ID is the opaque session identifier the client echoes back.
	ID string

	sched *loom.Scheduler
	root  *loom.Instance
	hids  *vdom.HIDGenerator

	// handlers maps "hid_oneventtype" to the handler from the last
	// committed tree. Rebound on every commit so stale closures never
	// fire.
	handlers map[string]vdom.EventHandler

	// pending accumulates patches across the commits of one flush; they
	// are shipped as a single frame at the end of the turn.
	pending []vdom.Patch

	// mu is the turn lock.
	mu sync.Mutex

	// conn is the live connection, nil while detached.
	conn   *websocket.Conn
	connMu sync.Mutex

	logger  *slog.Logger
	metrics *middleware.Metrics
	snaps   store.Store

	// lastStats tracks scheduler counters already fed to metrics.
	lastStats loom.Stats

	// lastSeen is unix nanos of the last client activity, for TTL sweeps.
	lastSeen atomic.Int64

	// wakeCh signals the turn loop that the scheduler has posted work.
	// Buffered with one slot; a wake while one is queued collapses into it.
	wakeCh chan struct{}
	done   chan struct{}

	closed atomic.Bool
}

var _ loom.Committer = (*Session)(nil)

// snapshotPayload is the serialized form of a session's cell values.
// Cells that cannot be marshaled are stored as null and reseed from the
// render function on resume.
type snapshotPayload struct {
	Version int               `json:"v"`
	Cells   []json.RawMessage `json:"cells"`
}

// jsonSeed adapts one persisted cell value to loom.Seed.
type jsonSeed struct {
	raw json.RawMessage
}

func (s jsonSeed) Decode(into any) bool {
	if len(s.raw) == 0 || string(s.raw) == "null" {
		return false
	}
	return json.Unmarshal(s.raw, into) == nil
}

// newSession mounts the root and runs its first turn. The returned
// session has its initial effects already executed, so InitialHTML
// reflects the settled first state.
func newSession(id string, render loom.RenderFunc, seeds []loom.Seed, cfg *Config) (*Session, error) {
	s := &Session{
		ID:       id,
		hids:     vdom.NewHIDGenerator(),
		handlers: make(map[string]vdom.EventHandler),
		logger:   cfg.Logger.With("session", id),
		metrics:  cfg.Metrics,
		snaps:    cfg.Store,
		wakeCh:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	s.sched = loom.NewScheduler(
		loom.WithLogger(s.logger),
		loom.WithCommitter(s),
		loom.WithWake(s.scheduleTurn),
	)
	s.touch()

	var opts []loom.MountOption
	if seeds != nil {
		opts = append(opts, loom.WithSeeds(seeds))
	}

	root, err := s.sched.Mount(render, opts...)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	s.root = root

	// Run the mount effect phase before the initial HTML is taken; any
	// state it settles is part of the first page.
	s.sched.Flush()
	s.pending = nil
	s.recordStats()

	go s.turnLoop()

	return s, nil
}

// scheduleTurn wakes the turn loop. Safe from any goroutine; never blocks.
func (s *Session) scheduleTurn() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// turnLoop drives flushes for work posted from outside event dispatch
// (timers, IO goroutines calling loom's Post). Each wake runs one full
// turn under the turn lock, exactly like the tail of Dispatch, so the
// client sees background state changes without having to send an event.
func (s *Session) turnLoop() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wakeCh:
			s.flushTurn()
		}
	}
}

// flushTurn flushes pending kernel work and ships the resulting patches.
func (s *Session) flushTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() || !s.sched.HasPending() {
		return
	}

	s.sched.Flush()
	s.flushPatches()
	s.recordStats()
	s.saveSnapshot(context.Background())
}

// Commit implements loom.Committer. The first commit assigns hydration
// IDs and binds handlers; later commits also diff against the previous
// tree and queue the patches for the turn's frame.
func (s *Session) Commit(_ *loom.Instance, prev, next *vdom.VNode) {
	if prev != nil {
		s.pending = append(s.pending, vdom.Diff(prev, next)...)
	}

	// New nodes (including the whole first tree) get IDs after the diff
	// so matched nodes keep the IDs copied from prev.
	vdom.AssignHIDs(next, s.hids)
	s.handlers = vdom.CollectHandlers(next)
}

// InitialHTML renders the last committed tree, for the SSR page shell.
func (s *Session) InitialHTML() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return vdom.RenderToString(s.root.LastTree())
}

// Dispatch handles one client event: look up the handler bound at the
// last commit, run it with panic containment, flush the scheduler, and
// ship the coalesced patches.
func (s *Session) Dispatch(ctx context.Context, event *protocol.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return fmt.Errorf("session %s: closed", s.ID)
	}
	s.touch()

	handler, ok := s.handlers[event.HandlerKey()]
	if !ok {
		s.logger.Warn("handler not found", "hid", event.HID, "event", event.Type)
		s.sendFrame(protocol.ErrorFrame(protocol.ErrHandlerNotFound, "no handler for "+event.HandlerKey()))
		return fmt.Errorf("session %s: no handler for %s", s.ID, event.HandlerKey())
	}

	err := s.safeExecute(handler, event)

	s.sched.Flush()
	s.flushPatches()
	s.recordStats()
	s.saveSnapshot(ctx)

	return err
}

// safeExecute runs a handler with panic recovery.
func (s *Session) safeExecute(handler vdom.EventHandler, event *protocol.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic",
				"hid", event.HID,
				"event", event.Type,
				"panic", r,
				"stack", string(debug.Stack()))
			s.sendFrame(protocol.ErrorFrame(protocol.ErrHandlerPanic, "internal error"))
			err = fmt.Errorf("session %s: handler panic: %v", s.ID, r)
		}
	}()

	handler(event.Payload)
	return nil
}

// flushPatches sends everything the turn's commits queued, as one frame.
func (s *Session) flushPatches() {
	if len(s.pending) == 0 {
		return
	}
	patches := s.pending
	s.pending = nil

	frame, err := protocol.PatchFrame(patches)
	if err != nil {
		s.logger.Error("encode patch frame", "err", err)
		return
	}

	if s.sendFrame(frame) && s.metrics != nil {
		s.metrics.PatchesSent.Add(float64(len(patches)))
	}
}

// sendFrame writes one frame to the live connection. Returns false while
// detached; patches queued before attach are superseded by the SSR HTML.
func (s *Session) sendFrame(frame *protocol.Message) bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return false
	}

	data, err := protocol.Encode(frame)
	if err != nil {
		s.logger.Error("encode frame", "type", frame.Type, "err", err)
		return false
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Warn("write frame", "err", err)
		return false
	}
	return true
}

// Attach binds a live connection to the session.
func (s *Session) Attach(conn *websocket.Conn) {
	s.connMu.Lock()
	old := s.conn
	s.conn = conn
	s.connMu.Unlock()

	if old != nil {
		old.Close()
	}
	s.touch()
}

// Detach drops the live connection; the session stays resumable until
// the TTL sweeper evicts it.
func (s *Session) Detach() {
	s.connMu.Lock()
	conn := s.conn
	s.conn = nil
	s.connMu.Unlock()

	if conn != nil {
		conn.Close()
	}
	s.touch()
}

// Close unmounts the root (running all outstanding cleanups) and drops
// the connection. Idempotent.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	close(s.done)

	s.mu.Lock()
	s.root.Unmount()
	s.mu.Unlock()

	s.Detach()
}

// saveSnapshot persists the root's serializable cells. Best-effort: a
// failed save is logged and counted, never surfaced to the client.
func (s *Session) saveSnapshot(ctx context.Context) {
	if s.snaps == nil {
		return
	}

	values := s.root.CellValues()
	payload := snapshotPayload{Version: 1, Cells: make([]json.RawMessage, len(values))}
	for i, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			raw = json.RawMessage("null")
		}
		payload.Cells[i] = raw
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.snapshotFailed("marshal snapshot", err)
		return
	}

	err = s.snaps.Save(ctx, &store.Snapshot{
		SessionID: s.ID,
		Data:      data,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		s.snapshotFailed("save snapshot", err)
	}
}

func (s *Session) snapshotFailed(what string, err error) {
	s.logger.Warn(what, "err", err)
	if s.metrics != nil {
		s.metrics.SnapshotFailures.Inc()
	}
}

// loadSeeds fetches a persisted snapshot and adapts it to kernel seeds.
// A missing snapshot returns nil seeds; a corrupt one counts as missing.
func loadSeeds(ctx context.Context, snaps store.Store, sessionID string) []loom.Seed {
	if snaps == nil {
		return nil
	}

	snap, err := snaps.Load(ctx, sessionID)
	if err != nil {
		return nil
	}

	var payload snapshotPayload
	if err := json.Unmarshal(snap.Data, &payload); err != nil {
		return nil
	}

	seeds := make([]loom.Seed, len(payload.Cells))
	for i, raw := range payload.Cells {
		seeds[i] = jsonSeed{raw: raw}
	}
	return seeds
}

// recordStats feeds scheduler counter deltas to the metrics instruments.
func (s *Session) recordStats() {
	if s.metrics == nil {
		return
	}

	stats := s.sched.Stats()
	s.metrics.RendersTotal.Add(float64(stats.Renders - s.lastStats.Renders))
	s.metrics.EffectsTotal.Add(float64(stats.EffectRuns - s.lastStats.EffectRuns))
	s.metrics.CleanupErrors.Add(float64(stats.CleanupPanics - s.lastStats.CleanupPanics))
	s.lastStats = stats
}

func (s *Session) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

// idleSince returns the time of the last client activity.
func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}
