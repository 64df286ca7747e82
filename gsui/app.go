// Package gsui hosts the ground-station control panel: a small
// wails-based window the GS operator runs alongside the link (§4.3's "UI
// widget thread" of §5). It owns its own event loop and exposes a dirty
// ARGB buffer plus a dirty flag that osd.Composer blends source-over with
// the MSP/overlay grids.
package gsui

import (
	"context"
	"fmt"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"skylink/osd"
)

// App is the wails-bound application struct. Bound methods below are
// callable from the frontend; startup/ready/shutdown mirror wails'
// lifecycle hooks.
type App struct {
	ctx context.Context

	mu     sync.Mutex
	widget *osd.Framebuffer
	dirty  bool

	width, height int
}

// NewApp creates the control panel, sized to the widget layer's pixel
// extent (independent of the OSD's character-grid logical size; the
// composer blends whatever the widget buffer reports).
func NewApp(width, height int) *App {
	return &App{width: width, height: height}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

func (a *App) ready(ctx context.Context) {
	runtime.EventsEmit(ctx, "gsui:ready", fmt.Sprintf("%dx%d", a.width, a.height))
}

func (a *App) shutdown(ctx context.Context) {}

// PushFrame is bound to the frontend: the JS side hands over a raw BGRA
// buffer (one widget redraw) which becomes the next source for
// TakeBuffer. Dimensions mismatching the app's configured size are
// rejected rather than silently clipped, since a short buffer would
// otherwise read out of bounds during compose.
func (a *App) PushFrame(pix []byte) error {
	want := a.width * a.height * 4
	if len(pix) != want {
		return fmt.Errorf("gsui: frame is %d bytes, want %d", len(pix), want)
	}

	fb := &osd.Framebuffer{W: a.width, H: a.height, Pix: append([]byte(nil), pix...)}

	a.mu.Lock()
	a.widget = fb
	a.dirty = true
	a.mu.Unlock()
	return nil
}

// Dims is bound to the frontend so it can size its canvas without the Go
// side needing to hardcode anything twice.
func (a *App) Dims() (int, int) {
	return a.width, a.height
}

// TakeBuffer returns the latest widget framebuffer and clears the dirty
// flag. Safe to call from the osd compose goroutine concurrently with
// PushFrame from the wails event loop.
func (a *App) TakeBuffer() (fb *osd.Framebuffer, dirty bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fb, dirty = a.widget, a.dirty
	a.dirty = false
	return fb, dirty
}
