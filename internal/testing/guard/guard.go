package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("HIRELINK_TEST_MODE") == "" {
			_ = os.Setenv("HIRELINK_TEST_MODE", "1")
		}
	})
}
