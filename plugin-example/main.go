// Command plugin-example is an Everything plugin with an options page.
//
//	go build -buildmode=c-shared -o plugin-example.dll ./plugin-example
package main

import (
	"github.com/evplug/everything-go/plugin-example/app"
	"github.com/evplug/everything-go/sdk"
)

func init() {
	sdk.Main(func() sdk.Dispatcher {
		return app.NewHandler()
	})
}

func main() {}
