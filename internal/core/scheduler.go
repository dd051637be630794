package core

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/comalice/uimachines/internal/primitives"
)

// scheduler owns every timer and activity a machine starts so that each one
// ends exactly once: delays either fire or are cancelled, activities are
// stopped on exit or teardown.
type scheduler struct {
	mu      sync.Mutex
	clock   primitives.Clock
	log     *log.Logger
	onError func(error)

	closed    bool
	nextToken uint64
	timers    map[uint64]primitives.Timer
	owners    map[nodeID][]uint64
	acts      map[nodeID][]*activityHandle
}

func newScheduler(clock primitives.Clock, logger *log.Logger, onError func(error)) *scheduler {
	return &scheduler{
		clock:   clock,
		log:     logger,
		onError: onError,
		timers:  make(map[uint64]primitives.Timer),
		owners:  make(map[nodeID][]uint64),
		acts:    make(map[nodeID][]*activityHandle),
	}
}

// schedule arms a timer owned by a state. fire receives the token and must
// call take before acting on it. After shutdown it arms nothing and returns 0.
func (s *scheduler) schedule(owner nodeID, d time.Duration, fire func(token uint64)) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	s.nextToken++
	token := s.nextToken
	s.timers[token] = s.clock.AfterFunc(d, func() {
		defer s.recoverPanic("timer", fmt.Sprint(token))
		fire(token)
	})
	s.owners[owner] = append(s.owners[owner], token)
	return token
}

// take consumes a live token. It returns false when the token was already
// taken or cancelled, which makes firing at-most-once.
func (s *scheduler) take(token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.timers[token]; !ok {
		return false
	}
	delete(s.timers, token)
	return true
}

// cancel stops every live timer owned by a state and returns how many it cancelled.
func (s *scheduler) cancel(owner nodeID) int {
	s.mu.Lock()
	tokens := s.owners[owner]
	delete(s.owners, owner)
	var stopped []primitives.Timer
	for _, tok := range tokens {
		if t, ok := s.timers[tok]; ok {
			delete(s.timers, tok)
			stopped = append(stopped, t)
		}
	}
	s.mu.Unlock()

	for _, t := range stopped {
		t.Stop()
	}
	return len(stopped)
}

// pending reports the number of live timers.
func (s *scheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

type activityHandle struct {
	name    string
	cancel  context.CancelFunc
	stop    func()
	once    sync.Once
	stopped atomic.Bool
}

// start launches an activity owned by a state. run receives a context that is
// cancelled on stop and a send that goes quiet once the activity is stopped.
// After shutdown it launches nothing.
func (s *scheduler) start(ctx context.Context, owner nodeID, name string, send func(primitives.Event), run func(context.Context, func(primitives.Event)) func()) {
	actx, cancel := context.WithCancel(ctx)
	h := &activityHandle{name: name, cancel: cancel}
	guarded := func(evt primitives.Event) {
		if h.stopped.Load() {
			return
		}
		send(evt)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return
	}
	s.acts[owner] = append(s.acts[owner], h)
	s.mu.Unlock()

	func() {
		defer s.recoverPanic("activity start", name)
		h.stop = run(actx, guarded)
	}()
}

// halt stops every activity owned by a state, most recently started first.
func (s *scheduler) halt(owner nodeID) int {
	s.mu.Lock()
	handles := s.acts[owner]
	delete(s.acts, owner)
	s.mu.Unlock()

	for i := len(handles) - 1; i >= 0; i-- {
		s.stopOne(handles[i])
	}
	return len(handles)
}

func (s *scheduler) stopOne(h *activityHandle) {
	h.once.Do(func() {
		h.stopped.Store(true)
		h.cancel()
		if h.stop != nil {
			defer s.recoverPanic("activity stop", h.name)
			h.stop()
		}
	})
}

// running reports the number of live activities.
func (s *scheduler) running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, hs := range s.acts {
		n += len(hs)
	}
	return n
}

// shutdown cancels all timers and stops all activities, deepest owners first.
// The scheduler accepts no new work afterwards.
func (s *scheduler) shutdown() {
	s.mu.Lock()
	s.closed = true
	owners := make([]nodeID, 0, len(s.owners)+len(s.acts))
	for o := range s.owners {
		owners = append(owners, o)
	}
	for o := range s.acts {
		if _, ok := s.owners[o]; !ok {
			owners = append(owners, o)
		}
	}
	s.mu.Unlock()

	slices.Sort(owners)
	for i := len(owners) - 1; i >= 0; i-- {
		s.cancel(owners[i])
		s.halt(owners[i])
	}
}

func (s *scheduler) recoverPanic(what, name string) {
	if r := recover(); r != nil {
		err := &CallbackError{Kind: KindActivity, Name: name, Err: &PanicError{Value: r}}
		s.log.Error("recovered panic", "in", what, "name", name, "panic", r)
		if s.onError != nil {
			s.onError(err)
		}
	}
}
