package archive

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	registryMu sync.Mutex
	registered []*Pool
)

// RegisterForExitCleanup adds p to the set of pools closed by
// CloseAllOnSignal. Call once per Pool, typically right after NewPool.
func RegisterForExitCleanup(p *Pool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registered = append(registered, p)
}

// CloseAllOnSignal installs a SIGINT/SIGTERM handler that closes every
// registered Pool (deleting their temp files) before the process exits.
// Mirrors the signal.Notify + graceful-shutdown pattern used by
// cmd/scand/main.go.
func CloseAllOnSignal(onSignal func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		registryMu.Lock()
		pools := append([]*Pool{}, registered...)
		registryMu.Unlock()
		for _, p := range pools {
			_ = p.Close()
		}
		if onSignal != nil {
			onSignal()
		}
	}()
}
