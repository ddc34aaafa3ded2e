// Command analytics sends events through the analytics client and inspects its on-device queue.
//
//	analytics track "Signed Up" --write-key KEY --properties '{"plan":"pro"}'
//	analytics flush --write-key KEY
//	analytics stats --write-key KEY --format prometheus
//
// Every flag can also be set with an ANALYTICS_ environment variable, such as ANALYTICS_WRITE_KEY,
// or in an analytics.yml configuration file.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
