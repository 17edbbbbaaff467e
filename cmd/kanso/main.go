// Command kanso runs the habit progress engine.
package main

import "github.com/comitanigiacomo/kanso-progress-engine/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
