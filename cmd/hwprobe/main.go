// Command hwprobe reports the hardware video codecs available on this
// machine.
//
// Usage:
//
//	hwprobe caps [--direction encode|decode|both] [--confirm] [-o text|json|yaml]
//	hwprobe adapters
//	hwprobe present [--kind gpu|image] [--dump frame.png]
//
// Flags may also be set in a YAML config file (--config, or hwprobe.yaml
// under the user config directory) or through HWPROBE_* environment
// variables, e.g. HWPROBE_LOG_LEVEL=debug.
package main

import (
	"fmt"
	"os"

	_ "github.com/gogpu/hwcodec/backend"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hwprobe:", err)
		os.Exit(1)
	}
}
