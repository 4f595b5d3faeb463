package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

// ensureTestMode keeps binaries and tests away from live Redis and Shopify.
func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("STOCKBRIDGE_TEST_MODE", "1")
		if os.Getenv("SHOPIFY_STORE_DOMAIN") == "" {
			_ = os.Setenv("SHOPIFY_STORE_DOMAIN", "http://127.0.0.1:0")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
