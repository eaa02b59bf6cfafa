package core

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/marcmoiagese/MapaNaixements/cnf"
)

func rateLimitedApp(interval time.Duration) *App {
	return &App{Config: cnf.AppConfig{RateLimit: interval}}
}

func limiterSize(a *App) int {
	n := 0
	a.rateLimiter.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func TestAllowConcurrentSameIP(t *testing.T) {
	a := rateLimitedApp(time.Second)
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	assert.True(t, a.allow("203.0.113.5", t0))

	next := t0.Add(time.Second)
	var passed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if a.allow("203.0.113.5", next) {
				passed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), passed.Load(), "només una petició pot renovar l'interval")
	assert.False(t, a.allow("203.0.113.5", next.Add(time.Millisecond)))
}

func TestAllowSweepsStaleIPs(t *testing.T) {
	a := rateLimitedApp(time.Second)
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 100; i++ {
		assert.True(t, a.allow(fmt.Sprintf("198.51.100.%d", i), t0))
	}
	assert.Equal(t, 100, limiterSize(a))

	// Abans de l'interval de neteja les entrades es conserven.
	assert.True(t, a.allow("192.0.2.1", t0.Add(30*time.Second)))
	assert.Equal(t, 101, limiterSize(a))

	later := t0.Add(rateLimitSweep + time.Second)
	assert.True(t, a.allow("192.0.2.2", later))
	assert.Equal(t, 1, limiterSize(a), "només queda la IP de la petició actual")
	assert.False(t, a.allow("192.0.2.2", later))
}
