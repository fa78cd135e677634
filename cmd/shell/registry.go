package shell

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/hitzhangjie/gothread/pkg/thread"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Threads holds every thread spawned from the shell. main stops them when the
// process is asked to terminate.
var Threads = NewRegistry()

// Registry 按编号管理shell中创建的线程
type Registry struct {
	mu      sync.Mutex
	logger  *slog.Logger
	threads map[uint64]*thread.Executor
}

func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		threads: map[uint64]*thread.Executor{},
	}
}

// SetLogger sets the logger handed to threads spawned afterwards.
func (r *Registry) SetLogger(l *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = l
}

// Spawn creates a thread without starting it.
func (r *Registry) Spawn(name string) *thread.Executor {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := thread.NewExecutor(thread.WithName(name), thread.WithLogger(r.logger))
	r.threads[e.ID()] = e
	return e
}

// Lookup finds a thread by the id printed by spawn and list.
func (r *Registry) Lookup(id string) (*thread.Executor, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid thread id %q", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.threads[n]
	if !ok {
		return nil, fmt.Errorf("thread %d not existed", n)
	}
	return e, nil
}

// Remove forgets a thread. A running thread must be stopped first.
func (r *Registry) Remove(id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.threads[id]
	if !ok {
		return fmt.Errorf("thread %d not existed", id)
	}
	if e.IsAlive() {
		return fmt.Errorf("thread %d still running", id)
	}
	delete(r.threads, id)
	return nil
}

// List returns the threads ordered by id.
func (r *Registry) List() []*thread.Executor {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := maps.Values(r.threads)
	slices.SortFunc(list, func(a, b *thread.Executor) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})
	return list
}

// StopAll stops every started thread and waits up to timeout for each of them
// to exit.
func (r *Registry) StopAll(timeout time.Duration) {
	list := r.List()
	for _, e := range list {
		e.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, e := range list {
		if e.Done() == nil {
			continue
		}
		if err := e.WaitContext(ctx); err != nil {
			fmt.Printf("thread %s not terminated: %v\n", e, err)
		}
	}
}
