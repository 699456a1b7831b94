// Command coolingoff runs the cooling-off purchase service.
//
// Usage:
//
//	coolingoff serve [--port 8080] [--no-sweep]
//	coolingoff sweep
//	coolingoff match CATEGORY BLACKLISTED...
//	coolingoff resolve PRICE --range min:max:days
package main

import (
	"os"

	"github.com/eshaffer321/coolingoff/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
