package sdk

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"
)

// Message is delivered to a page's Update.
type Message interface {
	pageMessage()
}

// AppMessage is embedded in a plugin's own page messages to make them a
// Message.
type AppMessage struct{}

func (AppMessage) pageMessage() {}

// SaveRequest asks a page to write its edits into Config.
//
// Config is loaned to the page until it answers: the page must call exactly
// one of Reply or Discard, and must not keep Config afterwards. The running
// App is unavailable while a save is in progress, so WithApp fails.
type SaveRequest[C any] struct {
	Config *C

	reply    chan *C
	once     sync.Once
	answered atomic.Bool
}

func newSaveRequest[C any](cfg *C) *SaveRequest[C] {
	return &SaveRequest[C]{Config: cfg, reply: make(chan *C, 1)}
}

func (*SaveRequest[C]) pageMessage() {}

// Reply hands the edited Config back.
func (r *SaveRequest[C]) Reply() {
	r.answer(r.Config)
}

// Discard answers the request without changes.
func (r *SaveRequest[C]) Discard() {
	r.answer(nil)
}

func (r *SaveRequest[C]) answer(cfg *C) {
	r.once.Do(func() {
		r.answered.Store(true)
		r.reply <- cfg
	})
}

func (r *SaveRequest[C]) discard() {
	r.Discard()
}

func (r *SaveRequest[C]) pending() bool {
	return !r.answered.Load()
}

// discarder is a request the page must answer before it exits.
type discarder interface {
	discard()
	pending() bool
}

type resizeMessage struct {
	width, height int32
}

func (resizeMessage) pageMessage() {}

type killMessage struct{}

func (killMessage) pageMessage() {}

// LoadArgs is passed to a page loader when Everything shows the page.
type LoadArgs struct {
	// Index is the page's registration index.
	Index int
	// Parent is the page window Everything created; the page embeds its
	// own window as a child of it.
	Parent uintptr
	// Tooltip is Everything's tooltip window for the page.
	Tooltip uintptr
}

// Page is the UI of an options page. All methods run on the page's worker
// goroutine, which is locked to one OS thread for the page's lifetime.
type Page[C any] interface {
	// Resize resizes the page window, keeping its origin at (0, 0).
	Resize(width, height int32)
	// Update handles a Message, e.g. *SaveRequest[C].
	Update(msg Message)
	// Close destroys the page window. The worker exits after it returns.
	Close()
}

// Pumper is implemented by pages owning native windows. Pump dispatches
// pending window messages of the worker thread without blocking.
type Pumper interface {
	Pump()
}

// PageFactory builds a page on its worker goroutine.
type PageFactory[C any] func(args LoadArgs) (Page[C], error)

// PageLoader starts an options page.
type PageLoader[C any] interface {
	Load(args LoadArgs) *PageHandle[C]
}

// PageLoaderFunc adapts a function to PageLoader.
type PageLoaderFunc[C any] func(args LoadArgs) *PageHandle[C]

func (f PageLoaderFunc[C]) Load(args LoadArgs) *PageHandle[C] {
	return f(args)
}

// OptionsPage describes one options page. The order pages are registered in
// is the index Everything uses to refer to them.
type OptionsPage[C any] struct {
	// Name is shown in the options tree. On conflicts with other plugins,
	// Everything appends " (plugin.dll)".
	Name   string
	Loader PageLoader[C]
}

// NewOptionsPage describes a page whose UI is built by factory on a
// dedicated worker.
func NewOptionsPage[C any](name string, factory PageFactory[C]) *OptionsPage[C] {
	return &OptionsPage[C]{Name: name, Loader: Spawn(factory)}
}

// PumpInterval is how often a Pumper page pumps its window messages.
var PumpInterval = 10 * time.Millisecond

// PageHandle is a running options page.
type PageHandle[C any] struct {
	ID    uuid.UUID
	Index int

	inbox *inbox
	done  chan struct{}
	err   error
	log   zerolog.Logger

	mu       sync.Mutex
	inflight []discarder
	exitOnce sync.Once
}

// NewPageHandle creates the handle of a page a custom PageLoader runs.
// Messages are read with Next.
func NewPageHandle[C any](index int) *PageHandle[C] {
	id := uuid.New()
	return &PageHandle[C]{
		ID:    id,
		Index: index,
		inbox: newInbox(),
		done:  make(chan struct{}),
		log:   log.With().Str("page", id.String()).Int("index", index).Logger(),
	}
}

// Send queues msg for the page. It reports false if the page has exited.
func (p *PageHandle[C]) Send(msg Message) bool {
	return p.inbox.push(msg)
}

func (p *PageHandle[C]) resize(width, height int32) bool {
	return p.inbox.push(resizeMessage{width: width, height: height})
}

// kill asks the page to close. The close is handled before queued messages.
func (p *PageHandle[C]) kill() bool {
	return p.inbox.pushFront(killMessage{})
}

// Done is closed when the page's worker has exited.
func (p *PageHandle[C]) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the worker exits or ctx is done.
func (p *PageHandle[C]) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns why the worker failed, once Done is closed.
func (p *PageHandle[C]) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Spawn returns the standard loader: every Load starts a worker goroutine
// locked to its own OS thread, builds the page there with factory and runs
// its event loop until the page is killed.
func Spawn[C any](factory PageFactory[C]) PageLoader[C] {
	return PageLoaderFunc[C](func(args LoadArgs) *PageHandle[C] {
		p := NewPageHandle[C](args.Index)
		go p.run(factory, args)
		return p
	})
}

func (p *PageHandle[C]) run(factory PageFactory[C], args LoadArgs) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var err error
	defer func() {
		p.exit(err)
		p.log.Debug().Msg("Options page worker exited")
	}()

	var pc panics.Catcher
	pc.Try(func() {
		page, ferr := factory(args)
		if ferr != nil {
			err = ferr
			p.log.Error().Err(err).Msg("Options page load failed")
			return
		}
		p.log.Debug().Uint64("parent", uint64(args.Parent)).Msg("Options page loaded")
		p.loop(page)
	})
	if r := pc.Recovered(); r != nil {
		err = r.AsError()
		p.log.Error().Err(err).Msg("Options page panicked")
	}
}

func (p *PageHandle[C]) loop(page Page[C]) {
	var tick <-chan time.Time
	pumper, pumps := page.(Pumper)
	if pumps {
		t := time.NewTicker(PumpInterval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-p.inbox.ready:
			for {
				msg, ok := p.inbox.pop()
				if !ok {
					break
				}
				switch m := msg.(type) {
				case killMessage:
					p.log.Debug().Msg("Options page close")
					page.Close()
					return
				case resizeMessage:
					p.log.Trace().Int32("width", m.width).Int32("height", m.height).Msg("Options page resize")
					page.Resize(m.width, m.height)
				default:
					p.track(msg)
					page.Update(msg)
				}
			}
		case <-tick:
			pumper.Pump()
		}
	}
}

// track remembers a request handed to the page until it is answered.
func (p *PageHandle[C]) track(msg Message) {
	d, ok := msg.(discarder)
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	live := p.inflight[:0]
	for _, x := range p.inflight {
		if x.pending() {
			live = append(live, x)
		}
	}
	clear(p.inflight[len(live):])
	p.inflight = append(live, d)
}

// exit discards every save the page did not answer, so the dispatcher never
// waits on an exited page, and closes Done.
func (p *PageHandle[C]) exit(err error) {
	p.exitOnce.Do(func() {
		p.mu.Lock()
		inflight := p.inflight
		p.inflight = nil
		p.mu.Unlock()

		for _, d := range inflight {
			d.discard()
		}
		for _, msg := range p.inbox.close() {
			if d, ok := msg.(discarder); ok {
				d.discard()
			}
		}
		p.err = err
		close(p.done)
	})
}

// Next blocks until a message arrives for a page run by a custom loader.
// It reports false once the page has been killed, after which the loader
// must call Exit.
func (p *PageHandle[C]) Next(ctx context.Context) (Message, bool) {
	for {
		if msg, ok := p.inbox.pop(); ok {
			if _, kill := msg.(killMessage); kill {
				return nil, false
			}
			if r, ok := msg.(resizeMessage); ok {
				return ResizeEvent{Width: r.width, Height: r.height}, true
			}
			p.track(msg)
			return msg, true
		}
		select {
		case <-p.inbox.ready:
		case <-ctx.Done():
			return nil, false
		}
	}
}

// Exit marks a page run by a custom loader as exited. Save requests not yet
// answered are discarded. Only the first call has an effect.
func (p *PageHandle[C]) Exit(err error) {
	p.exit(err)
}

// ResizeEvent is returned by Next when Everything resizes the page.
type ResizeEvent struct {
	Width, Height int32
}

func (ResizeEvent) pageMessage() {}

// inbox is an unbounded FIFO with a single consumer. ready holds a token
// whenever the queue may be non-empty.
type inbox struct {
	mu     sync.Mutex
	queue  []Message
	closed bool
	ready  chan struct{}
}

func newInbox() *inbox {
	return &inbox{ready: make(chan struct{}, 1)}
}

func (q *inbox) push(msg Message) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.queue = append(q.queue, msg)
	q.mu.Unlock()
	q.signal()
	return true
}

func (q *inbox) pushFront(msg Message) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.queue = append([]Message{msg}, q.queue...)
	q.mu.Unlock()
	q.signal()
	return true
}

func (q *inbox) pop() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.queue) == 0 {
		return nil, false
	}
	msg := q.queue[0]
	q.queue[0] = nil
	q.queue = q.queue[1:]
	return msg, true
}

func (q *inbox) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// close rejects further pushes and returns what was left unread.
func (q *inbox) close() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	rest := q.queue
	q.queue = nil
	return rest
}
