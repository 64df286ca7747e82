package gsui

import (
	"embed"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend/dist
var assets embed.FS

// Run blocks, hosting the control panel window until the operator closes
// it or ctx's owner calls Quit. width/height set both the window's
// default size and the widget framebuffer's pixel extent that PushFrame
// must match.
func Run(width, height int) error {
	return RunApp(NewApp(width, height))
}

// RunApp blocks, hosting app's control panel window. Callers that need to
// pull app.TakeBuffer from another goroutine (e.g. the OSD compositor)
// should construct the App themselves and use this instead of Run.
func RunApp(app *App) error {
	width, height := app.Dims()
	return wails.Run(&options.App{
		Title:  "skylink ground station",
		Width:  width,
		Height: height,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		OnDomReady: app.ready,
		Bind: []interface{}{
			app,
		},
	})
}
