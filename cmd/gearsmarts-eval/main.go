// gearsmarts-eval trains and tests labeled datasets against a running
// gear-smarts API and reports classifier quality.
package main

import (
	"os"

	"github.com/couchcryptid/gear-smarts-service/cmd/gearsmarts-eval/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
