// Package unidoc configures the process-wide state of the unipdf library.
package unidoc

import (
	"fmt"
	"sync"

	"github.com/unidoc/unipdf/v3/common"
	"github.com/unidoc/unipdf/v3/common/license"
)

func init() {
	common.SetLogger(common.NewConsoleLogger(common.LogLevelError))
}

var (
	mu         sync.Mutex
	appliedKey string
)

// CheckKey validates a key without installing it. Installing a metered key
// contacts the unidoc licensing service, so backends check at construction
// and install on first use.
func CheckKey(key string) error {
	if key == "" {
		return fmt.Errorf("unidoc license key is required for the unipdf backends")
	}
	return nil
}

// Installed reports whether a license key has been installed.
func Installed() bool {
	mu.Lock()
	defer mu.Unlock()
	return appliedKey != ""
}

// SetLicenseKey installs a metered API key. unipdf keeps the key globally, so
// repeated calls with the same key are no-ops and a different key is rejected.
func SetLicenseKey(key string) error {
	if err := CheckKey(key); err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	if appliedKey == key {
		return nil
	}
	if appliedKey != "" {
		return fmt.Errorf("a different unidoc license key is already installed")
	}

	if err := license.SetMeteredKey(key); err != nil {
		return fmt.Errorf("failed to set unidoc license: %w", err)
	}
	appliedKey = key
	return nil
}
