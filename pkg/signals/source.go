package signals

import (
	"os"
	"os/signal"
	"sync"
)

// Source abstracts the process-wide signal plumbing of os/signal, mainly so
// tests can inject deliveries.
type Source interface {
	// Notify registers c to receive the given signals.
	Notify(c chan<- os.Signal, sig ...os.Signal)
	// Stop unregisters c.
	Stop(c chan<- os.Signal)
	// Ignore sets the disposition of sig to "ignored".
	Ignore(sig ...os.Signal)
	// Reset restores the default disposition of sig.
	Reset(sig ...os.Signal)
}

// osSource is the production Source, shared by every Dispositions.
//
// signal.Ignore和signal.Reset会取消该信号上所有的Notify channel，
// 包括其他Dispositions注册的。这里记录每个信号上的channel数，只有最后
// 一个channel注销后才真正改变进程的处置方式。
type osSource struct {
	mu      sync.Mutex
	refs    map[os.Signal]int
	chans   map[chan<- os.Signal][]os.Signal
	ignored map[os.Signal]bool
}

var process = &osSource{
	refs:    make(map[os.Signal]int),
	chans:   make(map[chan<- os.Signal][]os.Signal),
	ignored: make(map[os.Signal]bool),
}

func (s *osSource) Notify(c chan<- os.Signal, sig ...os.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range sig {
		s.refs[v]++
		delete(s.ignored, v)
	}
	s.chans[c] = append(s.chans[c], sig...)
	signal.Notify(c, sig...)
}

func (s *osSource) Stop(c chan<- os.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	signal.Stop(c)
	for _, v := range s.chans[c] {
		s.refs[v]--
		if s.refs[v] > 0 {
			continue
		}
		delete(s.refs, v)
		// an Ignore deferred while other handlers were installed
		if s.ignored[v] {
			signal.Ignore(v)
		}
	}
	delete(s.chans, c)
}

func (s *osSource) Ignore(sig ...os.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range sig {
		s.ignored[v] = true
		if s.refs[v] == 0 {
			signal.Ignore(v)
		}
	}
}

func (s *osSource) Reset(sig ...os.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range sig {
		delete(s.ignored, v)
		if s.refs[v] == 0 {
			signal.Reset(v)
		}
	}
}
