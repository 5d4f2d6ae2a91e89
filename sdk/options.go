package sdk

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/evplug/everything-go/abi"
)

// Everything only loads an options page when the user selects it, and kills
// it when the options window closes or the user switches away.

func (h *Handler[C]) addOptionsPages(data uintptr) uintptr {
	log.Debug().Msg("Plugin add options pages")
	if len(h.pages) == 0 {
		return abi.False
	}
	host := h.Host()
	for i, page := range h.pages {
		host.UIOptionsAddPluginPage(data, uintptr(i), page.Name)
	}
	return abi.True
}

func (h *Handler[C]) page(index uintptr) (*OptionsPage[C], bool) {
	if index >= uintptr(len(h.pages)) {
		log.Warn().Uint64("index", uint64(index)).Msg("Unknown options page")
		return nil, false
	}
	return h.pages[index], true
}

// PageHandle returns the running page registered at index, or nil.
func (h *Handler[C]) PageHandle(index int) *PageHandle[C] {
	if index < 0 || index >= len(h.handles) {
		return nil
	}
	return h.handles[index]
}

func (h *Handler[C]) loadOptionsPage(data uintptr) uintptr {
	if len(h.pages) == 0 {
		return abi.False
	}
	d := (*abi.LoadOptionsPage)(abi.Pointer(data))
	log.Debug().Uint64("page_hwnd", uint64(d.PageHWND)).Msg("Plugin load options page")

	page, ok := h.page(d.UserData)
	if !ok {
		return abi.False
	}
	index := int(d.UserData)
	if old := h.handles[index]; old != nil {
		old.kill()
	}
	h.handles[index] = page.Loader.Load(LoadArgs{
		Index:   index,
		Parent:  d.PageHWND,
		Tooltip: d.TooltipHWND,
	})
	return abi.True
}

func (h *Handler[C]) saveOptionsPage(data uintptr) uintptr {
	if len(h.pages) == 0 {
		return abi.False
	}
	d := (*abi.SaveOptionsPage)(abi.Pointer(data))
	log.Debug().Uint64("user_data", uint64(d.UserData)).Msg("Plugin save options page")

	if _, ok := h.page(d.UserData); !ok {
		return abi.False
	}
	handle := h.handles[d.UserData]
	if handle == nil {
		log.Warn().Uint64("index", uint64(d.UserData)).Msg("Options page not loaded, can't save")
		return abi.True
	}

	cfg := h.appIntoConfig()
	h.appNew(h.requestSave(handle, &cfg))

	h.enableApply.Store(true)
	return abi.True
}

// requestSave loans a copy of cfg to the page and returns the config the
// App is rebuilt with. The page answering late only touches its own copy.
func (h *Handler[C]) requestSave(handle *PageHandle[C], cfg *C) *C {
	loan, err := h.codec.Clone(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Options page save skipped")
		return cfg
	}
	req := newSaveRequest(loan)
	if !handle.Send(req) {
		log.Debug().Msg("Options page already exited")
		return cfg
	}

	var timeout <-chan time.Time
	if h.saveTimeout > 0 {
		t := time.NewTimer(h.saveTimeout)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case updated := <-req.reply:
		if updated == nil {
			log.Debug().Msg("Options page config unchanged")
			return cfg
		}
		log.Debug().Interface("config", updated).Msg("Options page config")
		return updated
	case <-timeout:
		log.Warn().Dur("timeout", h.saveTimeout).Msg("Options page did not answer save, keeping config")
		return cfg
	}
}

// Everything sizes the page window itself and reports it with WM_SIZE.
func (h *Handler[C]) getOptionsPageMinMax(data uintptr) uintptr {
	log.Trace().Msg("Plugin get options page minmax")
	return abi.False
}

func (h *Handler[C]) sizeOptionsPage(data uintptr) uintptr {
	log.Trace().Msg("Plugin size options page")
	return abi.False
}

func (h *Handler[C]) optionsPageProc(data uintptr) uintptr {
	if len(h.pages) == 0 {
		return abi.False
	}
	d := (*abi.OptionsPageProc)(abi.Pointer(data))
	log.Trace().
		Uint32("msg", d.Msg).
		Uint64("wparam", uint64(d.WParam)).
		Uint64("lparam", uint64(d.LParam)).
		Msg("Plugin options page proc")

	if _, ok := h.page(d.UserData); !ok {
		return abi.False
	}
	handle := h.handles[d.UserData]
	host := h.GetHost()

	switch d.Msg {
	case abi.WmMove, abi.WmClose:
		log.Debug().Uint32("msg", d.Msg).Uint64("lparam", uint64(d.LParam)).Msg("Options page window")
	case abi.WmSize:
		if handle != nil {
			handle.resize(abi.LoWord(d.LParam), abi.HiWord(d.LParam))
		}
	case abi.WmParentNotify:
		if abi.LoWord(d.WParam) == abi.WmCreate {
			log.Debug().Msg("Options page child created")
		}
	case abi.WmCtlColorDlg:
		// The page is being painted, i.e. shown.
		if host != nil {
			host.UIOptionsEnableOrDisableApplyButton(d.OptionsHWND, true)
		}
	}

	if h.enableApply.Swap(false) && host != nil {
		host.UIOptionsEnableOrDisableApplyButton(d.OptionsHWND, true)
	}
	return abi.True
}

// killOptionsPage never blocks: the worker exits asynchronously.
func (h *Handler[C]) killOptionsPage(data uintptr) uintptr {
	log.Debug().Uint64("index", uint64(data)).Msg("Plugin kill options page")
	if data >= uintptr(len(h.handles)) || h.handles[data] == nil {
		log.Warn().Uint64("index", uint64(data)).Msg("Options page not loaded, can't kill")
		return abi.True
	}

	handle := h.handles[data]
	h.handles[data] = nil
	if !handle.kill() {
		log.Debug().Msg("Options page already exited")
	}
	if h.waitPageExit {
		go func() {
			start := time.Now()
			<-handle.Done()
			log.Debug().Dur("elapsed", time.Since(start)).Str("page", handle.ID.String()).Msg("Options page thread finished")
		}()
	}
	return abi.True
}
