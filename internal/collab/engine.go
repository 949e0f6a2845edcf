package collab

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/mhd-br/void-studio/internal/canvas"
	"github.com/mhd-br/void-studio/internal/relay"
	"github.com/mhd-br/void-studio/internal/ws"
)

// State is the engine's connection lifecycle state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Joined
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Joined:
		return "joined"
	default:
		return "disconnected"
	}
}

// Options configures an Engine.
type Options struct {
	RoomID   string
	UserName string
	// UserColor is the presence color sent at join time. Empty picks a
	// pseudo-random hue, like the original client.
	UserColor string
	// Debounce is the quiet interval local edits are coalesced over before
	// a broadcast goes out.
	Debounce time.Duration
	// CursorInterval is the minimum spacing between cursor-move sends.
	CursorInterval time.Duration
	// Dial opens the transport. Defaults to the websocket dialer; tests
	// substitute a fake.
	Dial func(url string) (Transport, error)
}

const (
	defaultDebounce       = 50 * time.Millisecond
	defaultCursorInterval = 50 * time.Millisecond
)

type intent struct {
	kind canvas.ChangeKind
	rev  uint64
}

// Engine is the client-side half of the sync protocol: it applies remote
// events to the local canvas store without re-broadcasting them, observes
// local edits and emits them to the relay, and tracks the connection
// lifecycle.
//
// Echo suppression is exact rather than timer-based. Every store mutation
// carries a revision; mutations the engine itself applies from remote
// events are recorded in remoteRevs under revMu, and the outbound flush
// checks pending change notifications against that set under the same
// lock. A revision is either remote-applied (never emitted) or a genuine
// local edit (always emitted); there is no window in which either is
// misclassified.
type Engine struct {
	store *canvas.Store
	opts  Options

	mu        sync.Mutex
	state     State
	transport Transport
	users     []relay.Presence
	cursors   map[string]relay.Presence

	revMu      sync.Mutex
	remoteRevs map[uint64]struct{}

	intents chan intent
	stop    chan struct{}

	cursorMu   sync.Mutex
	lastCursor time.Time

	onState func(State)
	onUsers func([]relay.Presence)
	// onCursor fires with the sender's connection ID and full presence.
	onCursor func(string, relay.Presence)
}

func NewEngine(store *canvas.Store, opts Options) *Engine {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.CursorInterval <= 0 {
		opts.CursorInterval = defaultCursorInterval
	}
	if opts.UserColor == "" {
		opts.UserColor = fmt.Sprintf("hsl(%d, 70%%, 60%%)", rand.Intn(360))
	}
	if opts.Dial == nil {
		opts.Dial = Dial
	}
	e := &Engine{
		store:      store,
		opts:       opts,
		cursors:    make(map[string]relay.Presence),
		remoteRevs: make(map[uint64]struct{}),
		intents:    make(chan intent, 256),
	}
	store.OnChange(e.observeChange)
	return e
}

// OnStateChange registers the lifecycle callback.
func (e *Engine) OnStateChange(fn func(State)) {
	e.mu.Lock()
	e.onState = fn
	e.mu.Unlock()
}

// OnUsers registers the users-update callback; the list includes this
// client's own presence.
func (e *Engine) OnUsers(fn func([]relay.Presence)) {
	e.mu.Lock()
	e.onUsers = fn
	e.mu.Unlock()
}

// OnCursor registers the remote cursor callback.
func (e *Engine) OnCursor(fn func(string, relay.Presence)) {
	e.mu.Lock()
	e.onCursor = fn
	e.mu.Unlock()
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Users returns the last received member list.
func (e *Engine) Users() []relay.Presence {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]relay.Presence, len(e.users))
	copy(out, e.users)
	return out
}

// Cursors returns the last known presence per remote connection.
func (e *Engine) Cursors() map[string]relay.Presence {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]relay.Presence, len(e.cursors))
	for k, v := range e.cursors {
		out[k] = v
	}
	return out
}

// Connect dials the relay, joins the configured room, and starts the
// receive loop and the outbound pump. Joining is optimistic: the engine
// moves to Joined without waiting for an acknowledgment, and degrades
// gracefully if no room-state ever arrives.
func (e *Engine) Connect(url string) error {
	e.setState(Connecting)
	t, err := e.opts.Dial(url)
	if err != nil {
		e.setState(Disconnected)
		return fmt.Errorf("dial %s: %w", url, err)
	}
	e.setState(Connected)

	join := ws.ClientMessage{
		Type:   relay.EventJoinRoom,
		RoomID: e.opts.RoomID,
		User:   &ws.UserInfo{Name: e.opts.UserName, Color: e.opts.UserColor},
	}
	if err := t.WriteMessage(join); err != nil {
		_ = t.Close()
		e.setState(Disconnected)
		return fmt.Errorf("join room %s: %w", e.opts.RoomID, err)
	}

	e.mu.Lock()
	e.transport = t
	e.stop = make(chan struct{})
	e.mu.Unlock()
	e.setState(Joined)

	go e.receiveLoop(t)
	go e.pumpLoop(t)
	return nil
}

// Close tears the connection down. No automatic reconnect: that policy
// belongs to the caller.
func (e *Engine) Close() error {
	e.mu.Lock()
	t := e.transport
	stop := e.stop
	e.transport = nil
	e.stop = nil
	e.mu.Unlock()
	if stop != nil {
		close(stop)
	}
	var err error
	if t != nil {
		err = t.Close()
	}
	e.setState(Disconnected)
	return err
}

// SendCursor emits the local pointer position, sampled down to at most one
// send per CursorInterval so raw input events do not flood the relay.
func (e *Engine) SendCursor(pos canvas.Point) {
	e.cursorMu.Lock()
	if time.Since(e.lastCursor) < e.opts.CursorInterval {
		e.cursorMu.Unlock()
		return
	}
	e.lastCursor = time.Now()
	e.cursorMu.Unlock()

	e.mu.Lock()
	t := e.transport
	joined := e.state == Joined
	e.mu.Unlock()
	if t == nil || !joined {
		return
	}
	_ = t.WriteMessage(ws.ClientMessage{
		Type:     relay.EventCursorMove,
		RoomID:   e.opts.RoomID,
		Position: &pos,
	})
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	changed := e.state != s
	e.state = s
	fn := e.onState
	e.mu.Unlock()
	if changed && fn != nil {
		fn(s)
	}
}

// observeChange is the canvas store subscriber. Every notification is
// queued; the pump decides at flush time whether the revision was a remote
// apply.
func (e *Engine) observeChange(kind canvas.ChangeKind, rev uint64) {
	select {
	case e.intents <- intent{kind: kind, rev: rev}:
	default:
		log.Printf("collab: intent queue full, dropping change rev=%d", rev)
	}
}

// applyRemote runs a store mutation caused by a remote event and records
// the revision it produced, all under revMu so the flush path cannot
// observe the notification before the revision is marked remote.
func (e *Engine) applyRemote(apply func() uint64) {
	e.revMu.Lock()
	if rev := apply(); rev != 0 {
		e.remoteRevs[rev] = struct{}{}
	}
	e.revMu.Unlock()
}

func (e *Engine) receiveLoop(t Transport) {
	for {
		msg, err := t.ReadMessage()
		if err != nil {
			e.mu.Lock()
			active := e.transport == t
			e.mu.Unlock()
			if active {
				log.Printf("collab: transport closed: %v", err)
				_ = e.Close()
			}
			return
		}
		e.handleMessage(msg)
	}
}

func (e *Engine) handleMessage(msg relay.ServerMessage) {
	switch msg.Type {
	case relay.EventRoomState, relay.EventCanvasUpdate:
		if msg.State == nil {
			return
		}
		snap := *msg.State
		e.applyRemote(func() uint64 { return e.store.LoadProject(snap) })

	case relay.EventLayerOperation:
		if msg.Operation == nil {
			return
		}
		op := *msg.Operation
		e.applyRemote(func() uint64 { return e.store.ApplyOperation(op) })

	case relay.EventVoidUpdate:
		if msg.VoidConfig == nil {
			return
		}
		cfg := *msg.VoidConfig
		e.applyRemote(func() uint64 { return e.store.SetVoidConfig(cfg) })

	case relay.EventUsersUpdate:
		e.mu.Lock()
		e.users = msg.Users
		fn := e.onUsers
		e.mu.Unlock()
		if fn != nil {
			fn(msg.Users)
		}

	case relay.EventCursorUpdate:
		if msg.User == nil {
			return
		}
		e.mu.Lock()
		e.cursors[msg.SenderID] = *msg.User
		fn := e.onCursor
		e.mu.Unlock()
		if fn != nil {
			fn(msg.SenderID, *msg.User)
		}
	}
}

// pumpLoop coalesces local change notifications over the debounce window
// and emits the corresponding events: any layer-list change pushes the
// whole snapshot (canvas-update), a background change pushes void-update.
func (e *Engine) pumpLoop(t Transport) {
	e.mu.Lock()
	stop := e.stop
	e.mu.Unlock()
	if stop == nil {
		return
	}

	var pending []intent
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case in := <-e.intents:
			pending = append(pending, in)
			if timer == nil {
				timer = time.NewTimer(e.opts.Debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(e.opts.Debounce)
			}

		case <-timerC:
			e.flush(t, pending)
			pending = nil
			timer = nil
			timerC = nil

		case <-stop:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (e *Engine) flush(t Transport, pending []intent) {
	var dirtyLayers, dirtyVoid bool

	e.revMu.Lock()
	for _, in := range pending {
		if _, remote := e.remoteRevs[in.rev]; remote {
			delete(e.remoteRevs, in.rev)
			continue
		}
		switch in.kind {
		case canvas.ChangeProject, canvas.ChangeLayers:
			// Any layer-list change pushes the full snapshot, background
			// included, so a project load never needs a separate void-update.
			dirtyLayers = true
		case canvas.ChangeVoid:
			dirtyVoid = true
		}
	}
	e.revMu.Unlock()

	if dirtyLayers {
		snap := e.store.CurrentSnapshot()
		_ = t.WriteMessage(ws.ClientMessage{
			Type:   relay.EventCanvasUpdate,
			RoomID: e.opts.RoomID,
			State:  &snap,
		})
	}
	if dirtyVoid {
		cfg := e.store.VoidConfig()
		_ = t.WriteMessage(ws.ClientMessage{
			Type:       relay.EventVoidUpdate,
			RoomID:     e.opts.RoomID,
			VoidConfig: &cfg,
		})
	}
}
