// Package sdk implements Everything plugins in Go.
//
// A plugin is a DLL exporting everything_plugin_proc. Everything calls it
// with a message code and a message-specific data pointer, always from its
// main thread. Handler turns those messages into the lifecycle of an App and
// its options pages:
//
//	INIT → START → (options pages, SAVE_SETTINGS)* → STOP → KILL
//
// The App is created from the stored config at START and consumed back into
// a config at KILL. While an options page is saved, the App is shut down,
// its config is edited by the page and a new App is started with the result.
package sdk

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/rs/zerolog/log"

	"github.com/evplug/everything-go/abi"
	"github.com/evplug/everything-go/internal/config"
	"github.com/evplug/everything-go/internal/logger"
	"github.com/evplug/everything-go/ipc"
)

// ErrAppUnavailable is returned by WithApp before START, after KILL and while
// the config is being saved.
var ErrAppUnavailable = errors.New("plugin app not available")

// App is the plugin's application object. It owns the config between START
// and KILL.
type App[C any] interface {
	// Start runs after the App is created. It may start services that call
	// back into the handler with WithApp.
	Start()
	Config() *C
	IntoConfig() C
}

// AppFactory creates the App. cfg is nil when there is no stored config, in
// which case the App uses its default.
type AppFactory[C any] func(cfg *C) App[C]

// Descriptor identifies the plugin to Everything. Empty fields are reported
// as absent.
type Descriptor struct {
	Name        string
	Description string
	Author      string
	Version     string
	Link        string
}

// Dispatcher handles plugin messages.
type Dispatcher interface {
	Handle(msg uint32, data uintptr) uintptr
}

// Handler is the plugin message state machine for an App with config C.
//
// Everything sends every message from one thread and never overlaps calls;
// Handler panics if it observes overlapping calls. Page workers never call
// Handle, they only read the App through WithApp.
type Handler[C any] struct {
	desc     Descriptor
	identity map[abi.Message]uintptr
	newApp   AppFactory[C]
	codec    *Codec[C]
	pages    []*OptionsPage[C]

	newResolver  func(data uintptr) Resolver
	locate       func() (string, bool)
	configFile   *ConfigFile[C]
	configPath   string
	saveTimeout  time.Duration
	waitPageExit bool
	timeoutSet   bool
	waitSet      bool

	busy         atomic.Bool
	initialized  atomic.Bool
	host         atomic.Pointer[Host]
	instanceName string
	hasInstance  bool

	mu  sync.RWMutex
	app App[C]

	// Touched only from Handle.
	handles     []*PageHandle[C]
	enableApply atomic.Bool
}

// Option configures a Handler.
type Option[C any] func(*Handler[C])

// WithOptionsPages registers options pages. Their order is the user_data
// Everything uses to refer to them.
func WithOptionsPages[C any](pages ...*OptionsPage[C]) Option[C] {
	return func(h *Handler[C]) {
		h.pages = append(h.pages, pages...)
	}
}

// WithConfigSchema validates stored configs against a JSON schema. A config
// failing validation is treated like a missing one.
func WithConfigSchema[C any](schema string) Option[C] {
	return func(h *Handler[C]) {
		h.codec = NewCodec[C](schema)
	}
}

// WithConfigFile loads and saves the config from a JSON file when running
// without a host.
func WithConfigFile[C any](path string) Option[C] {
	return func(h *Handler[C]) {
		h.configPath = path
	}
}

// WithSaveTimeout bounds the save handshake with an options page. Zero waits
// indefinitely.
func WithSaveTimeout[C any](d time.Duration) Option[C] {
	return func(h *Handler[C]) {
		h.saveTimeout = d
		h.timeoutSet = true
	}
}

// WithPageExitWait controls whether killed pages are watched until their
// worker exits. Handle never blocks on it.
func WithPageExitWait[C any](wait bool) Option[C] {
	return func(h *Handler[C]) {
		h.waitPageExit = wait
		h.waitSet = true
	}
}

// WithResolver replaces how the INIT data pointer becomes a Resolver.
func WithResolver[C any](fn func(data uintptr) Resolver) Option[C] {
	return func(h *Handler[C]) {
		h.newResolver = fn
	}
}

// WithInstanceLocator replaces the IPC window lookup run at INIT.
func WithInstanceLocator[C any](fn func() (string, bool)) Option[C] {
	return func(h *Handler[C]) {
		h.locate = fn
	}
}

// NewHandler creates a handler.
func NewHandler[C any](desc Descriptor, newApp AppFactory[C], opts ...Option[C]) *Handler[C] {
	h := &Handler[C]{
		desc:   desc,
		newApp: newApp,
		codec:  NewCodec[C](""),
		newResolver: func(data uintptr) Resolver {
			return ffiResolver{getProcAddress: data}
		},
		locate:       ipc.InstanceNameFromCurrentThread,
		waitPageExit: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.configPath != "" {
		h.configFile = NewConfigFile(h.configPath, h.codec)
	}
	h.handles = make([]*PageHandle[C], len(h.pages))

	h.identity = make(map[abi.Message]uintptr)
	for msg, s := range map[abi.Message]string{
		abi.PmGetName:        desc.Name,
		abi.PmGetDescription: desc.Description,
		abi.PmGetAuthor:      desc.Author,
		abi.PmGetVersion:     desc.Version,
		abi.PmGetLink:        desc.Link,
	} {
		if s != "" {
			h.identity[msg] = allocCString(s)
		}
	}
	return h
}

// Descriptor returns the plugin identity.
func (h *Handler[C]) Descriptor() Descriptor {
	return h.desc
}

func (h *Handler[C]) enter() {
	if !h.busy.CompareAndSwap(false, true) {
		panic("plugin: overlapping message dispatch")
	}
}

func (h *Handler[C]) leave() {
	h.busy.Store(false)
}

// Handle processes one plugin message.
func (h *Handler[C]) Handle(msg uint32, data uintptr) uintptr {
	h.enter()
	defer h.leave()
	return h.handle(msg, data)
}

func (h *Handler[C]) handle(msg uint32, data uintptr) uintptr {
	switch msg {
	case abi.PmInit:
		return h.init(data)
	case abi.PmGetPluginVersion:
		return abi.PluginVersion
	case abi.PmGetName, abi.PmGetDescription, abi.PmGetAuthor, abi.PmGetVersion, abi.PmGetLink:
		log.Debug().Str("msg", abi.MessageName(msg)).Msg("Plugin get identity")
		return h.identity[msg]
	case abi.PmStart:
		log.Debug().Msg("Plugin start")
		h.appNew(h.loadSettings(data))
		return abi.True
	case abi.PmStop:
		log.Debug().Msg("Plugin stop")
		return abi.True
	case abi.PmUninstall:
		log.Debug().Msg("Plugin uninstall")
		return abi.True
	case abi.PmKill:
		// Always the last message sent to the plugin.
		log.Debug().Msg("Plugin kill")
		h.appIntoConfig()
		return abi.True
	case abi.PmAddOptionsPages:
		return h.addOptionsPages(data)
	case abi.PmLoadOptionsPage:
		return h.loadOptionsPage(data)
	case abi.PmSaveOptionsPage:
		return h.saveOptionsPage(data)
	case abi.PmGetOptionsPageMinMax:
		return h.getOptionsPageMinMax(data)
	case abi.PmSizeOptionsPage:
		return h.sizeOptionsPage(data)
	case abi.PmOptionsPageProc:
		return h.optionsPageProc(data)
	case abi.PmKillOptionsPage:
		return h.killOptionsPage(data)
	case abi.PmSaveSettings:
		return h.saveSettings(data)
	default:
		log.Debug().Uint32("msg", msg).Uint64("data", uint64(data)).Msg("Plugin message")
		return abi.False
	}
}

func (h *Handler[C]) init(data uintptr) uintptr {
	if !h.initialized.CompareAndSwap(false, true) {
		panic("plugin: already initialized")
	}

	cfg := initRuntime(os.Getenv(config.EnvPrefix + "_CONFIG"))
	if !h.timeoutSet {
		h.saveTimeout = cfg.Options.SaveTimeout
	}
	if !h.waitSet {
		h.waitPageExit = cfg.Options.WaitPageExit
	}
	log.Debug().Bool("host", data != 0).Msg("Plugin init")

	if data != 0 {
		h.host.Store(NewHost(h.newResolver(data)))
	}

	h.instanceName, h.hasInstance = h.locate()
	log.Debug().Str("instance_name", h.instanceName).Bool("named", h.hasInstance).Msg("Plugin instance")
	return abi.True
}

var (
	runtimeOnce   sync.Once
	runtimeConfig *config.Config
)

// initRuntime loads the binding's options and sets up logging once per
// process.
func initRuntime(path string) *config.Config {
	runtimeOnce.Do(func() {
		cfg, err := config.Load(path)
		if err != nil {
			cfg = config.Default()
		}
		if l, lerr := logger.New(cfg.Logger()); lerr != nil {
			log.Error().Err(lerr).Msg("Plugin logger setup failed")
		} else {
			log.Logger = l.Component("plugin")
		}
		if err != nil {
			log.Error().Err(err).Msg("Plugin runtime config error, using defaults")
		}
		runtimeConfig = cfg
	})
	return runtimeConfig
}

// GetHost returns the host, or nil before INIT or in standalone mode.
func (h *Handler[C]) GetHost() *Host {
	return h.host.Load()
}

// Host returns the host. It panics without one.
func (h *Handler[C]) Host() *Host {
	host := h.GetHost()
	if host == nil {
		panic(fmt.Errorf("plugin: %w", ErrNoHost))
	}
	return host
}

// InstanceName returns the Everything instance name, e.g. "1.5a", if the
// host runs as a named instance.
func (h *Handler[C]) InstanceName() (string, bool) {
	return h.instanceName, h.hasInstance
}

func (h *Handler[C]) appNew(cfg *C) {
	h.mu.Lock()
	if h.app != nil {
		h.mu.Unlock()
		panic("plugin: app already started")
	}
	app := h.newApp(cfg)
	h.app = app
	h.mu.Unlock()

	app.Start()
}

func (h *Handler[C]) appIntoConfig() C {
	h.mu.Lock()
	app := h.app
	h.app = nil
	h.mu.Unlock()

	if app == nil {
		panic("plugin: app not started")
	}
	return app.IntoConfig()
}

func (h *Handler[C]) withAppLocked(fn func(App[C])) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.app == nil {
		panic("plugin: app not started")
	}
	fn(h.app)
}

// WithApp calls fn with the running App. It is safe to call from any
// goroutine, including page workers.
func (h *Handler[C]) WithApp(fn func(App[C])) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.app == nil {
		return ErrAppUnavailable
	}
	fn(h.app)
	return nil
}

// WithConfig calls fn with the running App's config.
func (h *Handler[C]) WithConfig(fn func(*C)) error {
	return h.WithApp(func(app App[C]) {
		fn(app.Config())
	})
}

// InitStart runs INIT and START without a host.
func (h *Handler[C]) InitStart() {
	h.enter()
	defer h.leave()
	h.handle(abi.PmInit, 0)
	h.handle(abi.PmStart, 0)
}

// InitStartWithConfig runs INIT and START without a host, starting the App
// with cfg.
func (h *Handler[C]) InitStartWithConfig(cfg C) {
	h.enter()
	defer h.leave()
	h.handle(abi.PmInit, 0)
	h.handle(abi.PmStart, NewConfigHandle(cfg))
}

// StopKill runs STOP and KILL and returns the App's final config.
func (h *Handler[C]) StopKill() C {
	h.enter()
	defer h.leave()
	h.handle(abi.PmStop, 0)
	log.Debug().Msg("Plugin kill")
	return h.appIntoConfig()
}

// Restart replaces the running App with one built from cfg.
func (h *Handler[C]) Restart(cfg C) {
	h.enter()
	defer h.leave()
	h.appIntoConfig()
	h.appNew(&cfg)
}

// SaveSettings saves the running App's config to the config file when
// running without a host.
func (h *Handler[C]) SaveSettings() bool {
	h.enter()
	defer h.leave()
	return h.saveSettings(0) == abi.True
}

// Plugin registration. Everything loads one plugin per DLL, so the handler
// is a process-wide singleton created on the first message.
var (
	pluginCtor   func() Dispatcher
	pluginOnce   sync.Once
	globalPlugin Dispatcher
)

// Main registers the constructor of the plugin's handler. Call it from an
// init function of the plugin's main package. It panics if called twice.
func Main(ctor func() Dispatcher) {
	if pluginCtor != nil {
		panic("plugin: Main called twice")
	}
	pluginCtor = ctor
}

// Instance returns the plugin's handler, constructing it on first use.
func Instance() Dispatcher {
	pluginOnce.Do(func() {
		if pluginCtor == nil {
			panic("plugin: no handler registered, call sdk.Main from init")
		}
		globalPlugin = pluginCtor()
	})
	return globalPlugin
}

// allocCString materializes an identity string for the host. The cgo build
// allocates it with C.CString; keepAlive pins the pure Go fallback.
var (
	keepAlive    [][]byte
	allocCString = func(s string) uintptr {
		b := abi.BytePtr(s)
		keepAlive = append(keepAlive, b)
		return uintptr(unsafe.Pointer(&b[0]))
	}
)
