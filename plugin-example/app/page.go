package app

import (
	"github.com/rs/zerolog/log"

	"github.com/evplug/everything-go/sdk"
	"github.com/evplug/everything-go/ui"
)

// Edit changes the settings shown on the options page. Send it with
// PageHandle.Send; it takes effect when Everything saves the page.
type Edit struct {
	sdk.AppMessage
	Apply func(cfg *Config)
}

var newWindow = ui.NewChildWindow

type optionsPage struct {
	*ui.ChildWindow

	// shown is what the page displays. edits are applied to the stored
	// settings on the next save.
	shown Config
	edits []func(cfg *Config)
}

func newOptionsPage(h *sdk.Handler[Config], args sdk.LoadArgs) (sdk.Page[Config], error) {
	cfg := DefaultConfig()
	if err := h.WithConfig(func(c *Config) { cfg = *c }); err != nil {
		log.Warn().Err(err).Msg("Options page shows default settings")
	}

	w, err := newWindow(args.Parent, cfg.Message)
	if err != nil {
		return nil, err
	}
	return &optionsPage{ChildWindow: w, shown: cfg}, nil
}

func (p *optionsPage) Update(msg sdk.Message) {
	switch m := msg.(type) {
	case *sdk.SaveRequest[Config]:
		if len(p.edits) == 0 {
			m.Discard()
			return
		}
		for _, apply := range p.edits {
			apply(m.Config)
		}
		p.edits = nil
		p.shown = *m.Config
		m.Reply()
	case Edit:
		m.Apply(&p.shown)
		p.edits = append(p.edits, m.Apply)
		log.Debug().Interface("shown", p.shown).Msg("Options page edited")
	}
}
