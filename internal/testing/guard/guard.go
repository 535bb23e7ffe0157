// Package guard switches the binaries into test mode when imported from tests.
package guard

import (
	"os"
	"sync"
)

// EnvVar is the flag read by app.InTestMode.
const EnvVar = "STOCKLEDGER_TEST_MODE"

var once sync.Once

func init() {
	Enable()
}

// Enable sets the test-mode flag unless the environment already carries one.
func Enable() {
	once.Do(func() {
		if os.Getenv(EnvVar) == "" {
			_ = os.Setenv(EnvVar, "1")
		}
	})
}
