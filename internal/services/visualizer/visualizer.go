package visualizer

import (
	"log"
	"sync"
	"time"

	"github.com/remixlab/remix-api/internal/services/engine"
	"github.com/remixlab/remix-api/internal/services/ledger"
)

// State tracks the visualizer lifecycle for one session
type State string

const (
	StateUninitialized State = "uninitialized"
	StateGraphReady    State = "graph_ready"
	StateAnimating     State = "animating"
	StateTornDown      State = "torn_down"
)

// Frame is one snapshot of the mixed analyzer output, broadcast to
// every subscriber at the configured frame rate
type Frame struct {
	Timestamp int64     `json:"timestamp"`
	Bands     []float64 `json:"bands"`
	Wave      []float64 `json:"wave"`
}

const (
	defaultWavePoints = 128
	subscriberBuffer  = 4
)

// Config carries the tunables the visualizer needs at build time
type Config struct {
	FrameRate int
	FFTSize   int
	Bands     int
}

// Visualizer owns the analyzer graph and frame loop for one session.
// Both decks feed a single analyzer; whichever deck is playing drives
// the display, and a fully paused mix renders as a flat frame rather
// than stopping the loop.
type Visualizer struct {
	mu sync.Mutex

	sessionID string
	cfg       Config
	led       *ledger.Ledger

	state    State
	analyzer *engine.Analyzer
	decks    map[DeckID]*deck
	bands    int

	subs map[chan Frame]struct{}
}

// New builds an uninitialized visualizer bound to the session's ledger
func New(sessionID string, cfg Config, led *ledger.Ledger) *Visualizer {
	if cfg.Bands <= 0 {
		cfg.Bands = 64
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 30
	}
	return &Visualizer{
		sessionID: sessionID,
		cfg:       cfg,
		led:       led,
		state:     StateUninitialized,
		decks:     make(map[DeckID]*deck),
		bands:     cfg.Bands,
		subs:      make(map[chan Frame]struct{}),
	}
}

// State returns the current lifecycle state
func (v *Visualizer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// SetBands changes the number of frequency groups in subsequent frames
func (v *Visualizer) SetBands(n int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == StateTornDown {
		return ErrTornDown
	}
	if n < 1 {
		n = 1
	}
	if n > v.cfg.FFTSize/2 {
		n = v.cfg.FFTSize / 2
	}
	v.bands = n
	return nil
}

// EnsureGraph acquires the shared audio context and builds the analyzer
// if it does not exist yet. Safe to call repeatedly; only the first
// call does work.
func (v *Visualizer) EnsureGraph() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ensureGraphLocked()
}

func (v *Visualizer) ensureGraphLocked() error {
	if v.state == StateTornDown {
		return ErrTornDown
	}
	if v.analyzer != nil {
		return nil
	}
	ctx := engine.AcquireSharedContext()
	analyzer, err := ctx.NewAnalyzer(v.cfg.FFTSize)
	if err != nil {
		// A previous session's pending close may have landed between
		// acquire and node creation; one re-acquire gets a live context.
		ctx = engine.AcquireSharedContext()
		analyzer, err = ctx.NewAnalyzer(v.cfg.FFTSize)
		if err != nil {
			return err
		}
	}
	v.analyzer = analyzer
	v.led.Stage(ledger.SlotAudioContext, func() {
		// Context close is best effort and must not block teardown
		go func() {
			if err := ctx.Close(); err != nil {
				log.Printf("[WARN] Audio context close for session %s: %v", v.sessionID, err)
			}
		}()
	})
	if v.state == StateUninitialized {
		v.state = StateGraphReady
	}
	return nil
}

// AttachDeck loads audio into the named deck. Only the original deck is
// served to the listener; both decks feed the analyzer equally.
// Reattaching replaces the previous buffer and resets transport.
func (v *Visualizer) AttachDeck(id DeckID, buf *engine.Buffer) error {
	if !ValidDeck(id) {
		return ErrUnknownDeck
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == StateTornDown {
		return ErrTornDown
	}
	if err := v.ensureGraphLocked(); err != nil {
		return err
	}
	v.decks[id] = &deck{buf: buf}
	return nil
}

// DetachDeck drops the named deck's audio without stopping the loop
func (v *Visualizer) DetachDeck(id DeckID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.decks, id)
}

// Play starts the named deck's transport from its current position
func (v *Visualizer) Play(id DeckID) error {
	return v.transport(id, func(d *deck, now time.Time) { d.play(now) })
}

// Pause freezes the named deck's transport in place
func (v *Visualizer) Pause(id DeckID) error {
	return v.transport(id, func(d *deck, now time.Time) { d.pause(now) })
}

// Seek moves the named deck's playhead, clamped to the track bounds
func (v *Visualizer) Seek(id DeckID, seconds float64) error {
	return v.transport(id, func(d *deck, now time.Time) { d.seek(now, seconds) })
}

func (v *Visualizer) transport(id DeckID, op func(*deck, time.Time)) error {
	if !ValidDeck(id) {
		return ErrUnknownDeck
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == StateTornDown {
		return ErrTornDown
	}
	d, ok := v.decks[id]
	if !ok {
		return ErrDeckEmpty
	}
	op(d, time.Now())
	if err := v.startLocked(); err != nil {
		return err
	}
	return nil
}

// DeckPosition reports the named deck's playhead and whether it is playing
func (v *Visualizer) DeckPosition(id DeckID) (seconds float64, playing bool, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == StateTornDown {
		return 0, false, ErrTornDown
	}
	d, ok := v.decks[id]
	if !ok {
		return 0, false, ErrDeckEmpty
	}
	return d.positionAt(time.Now()), d.playing, nil
}

// Start launches the frame loop if it is not already running
func (v *Visualizer) Start() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.startLocked()
}

func (v *Visualizer) startLocked() error {
	if v.state == StateTornDown {
		return ErrTornDown
	}
	if v.state == StateAnimating {
		return nil
	}
	if err := v.ensureGraphLocked(); err != nil {
		return err
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go v.run(stop, done)

	// The ledger owns the stop handle so a double cancel is impossible.
	// Release blocks until the loop goroutine has drained.
	v.led.Stage(ledger.SlotFrameLoop, func() {
		close(stop)
		<-done
	})
	v.state = StateAnimating
	return nil
}

// run produces frames at the configured rate until told to stop. It
// takes the lock only long enough to mix and deliver one frame.
func (v *Visualizer) run(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(v.cfg.FrameRate))
	defer ticker.Stop()

	mix := make([]float64, v.cfg.FFTSize)
	scratch := make([]float64, v.cfg.FFTSize)

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			v.broadcastFrame(now, mix, scratch)
		}
	}
}

// broadcastFrame mixes, samples, and fans out one frame. Delivery runs
// under the lock so no subscriber channel can be closed mid-send.
func (v *Visualizer) broadcastFrame(now time.Time, mix, scratch []float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i := range mix {
		mix[i] = 0
	}
	for _, d := range v.decks {
		d.mixInto(now, mix, scratch)
	}

	bands, wave := v.analyzer.Sample(mix, v.bands, defaultWavePoints)
	frame := Frame{Timestamp: now.UnixMilli(), Bands: bands, Wave: wave}

	for ch := range v.subs {
		select {
		case ch <- frame:
		default:
			// Slow subscriber, drop the frame for it
		}
	}
}

// Subscribe registers a frame consumer and returns its channel plus an
// unsubscribe func. The channel is closed on teardown.
func (v *Visualizer) Subscribe() (<-chan Frame, func(), error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == StateTornDown {
		return nil, nil, ErrTornDown
	}
	if err := v.startLocked(); err != nil {
		return nil, nil, err
	}
	ch := make(chan Frame, subscriberBuffer)
	v.subs[ch] = struct{}{}
	cancel := func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if _, ok := v.subs[ch]; ok {
			delete(v.subs, ch)
			close(ch)
		}
	}
	return ch, cancel, nil
}

// Teardown stops the frame loop, releases the audio context and closes
// all subscriber channels. Idempotent. The frame loop is cancelled
// synchronously so no frame can be produced after Teardown returns.
func (v *Visualizer) Teardown() {
	v.mu.Lock()
	if v.state == StateTornDown {
		v.mu.Unlock()
		return
	}
	v.state = StateTornDown
	v.mu.Unlock()

	// Release must run unlocked: the frame-loop callback waits for the
	// run goroutine, which needs the lock to build its last frame.
	v.led.Release(ledger.SlotFrameLoop)
	v.led.Release(ledger.SlotAudioContext)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.decks = make(map[DeckID]*deck)
	v.analyzer = nil
	for ch := range v.subs {
		close(ch)
	}
	v.subs = make(map[chan Frame]struct{})
}
