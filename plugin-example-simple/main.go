// Command plugin-example-simple is a minimal Everything plugin without
// options pages.
//
//	go build -buildmode=c-shared -o plugin-example-simple.dll ./plugin-example-simple
package main

import (
	"github.com/rs/zerolog/log"

	"github.com/evplug/everything-go/ipc"
	"github.com/evplug/everything-go/sdk"
)

type config struct {
	Greeting string `json:"greeting"`
	Starts   int    `json:"starts"`
}

type app struct {
	cfg config
}

func newApp(cfg *config) sdk.App[config] {
	a := &app{cfg: config{Greeting: "Hello from Go"}}
	if cfg != nil {
		a.cfg = *cfg
	}
	return a
}

func (a *app) Start() {
	a.cfg.Starts++

	// Everything's IPC window belongs to its main thread, which is the
	// thread delivering plugin messages.
	ev := log.Info().Int("starts", a.cfg.Starts)
	if w, ok := ipc.FromCurrentThread(); ok {
		ev = ev.Stringer("everything", w.GetVersion())
		if name, ok := w.InstanceName(); ok {
			ev = ev.Str("instance", name)
		}
	}
	ev.Msg(a.cfg.Greeting)
}

func (a *app) Config() *config {
	return &a.cfg
}

func (a *app) IntoConfig() config {
	return a.cfg
}

func init() {
	sdk.Main(func() sdk.Dispatcher {
		return sdk.NewHandler[config](sdk.Descriptor{
			Name:        "Simple Go Plugin",
			Description: "Counts how often Everything started it",
			Author:      "evplug",
			Version:     "0.1.0",
		}, newApp)
	})
}

func main() {}
