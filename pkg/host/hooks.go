package host

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// HookInit fires once the host has loaded its roles and users
const HookInit = "init"

// Action is a callback attached to a lifecycle hook
type Action func(ctx context.Context) error

// Lifecycle lets callers attach work to named host events
type Lifecycle interface {
	AddAction(hook string, priority int, fn Action)
	DoAction(ctx context.Context, hook string) error
}

type registeredAction struct {
	priority int
	seq      int
	fn       Action
}

// Hooks is an in-process Lifecycle. Actions run in ascending priority and,
// within one priority, in registration order. Embed it to make a store a Lifecycle.
type Hooks struct {
	mu      sync.Mutex
	seq     int
	actions map[string][]registeredAction
}

// AddAction attaches fn to hook
func (h *Hooks) AddAction(hook string, priority int, fn Action) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.actions == nil {
		h.actions = make(map[string][]registeredAction)
	}
	h.seq++
	h.actions[hook] = append(h.actions[hook], registeredAction{priority: priority, seq: h.seq, fn: fn})
}

// DoAction runs every action attached to hook and stops at the first error
func (h *Hooks) DoAction(ctx context.Context, hook string) error {
	h.mu.Lock()
	actions := make([]registeredAction, len(h.actions[hook]))
	copy(actions, h.actions[hook])
	h.mu.Unlock()

	sort.SliceStable(actions, func(i, j int) bool {
		if actions[i].priority != actions[j].priority {
			return actions[i].priority < actions[j].priority
		}
		return actions[i].seq < actions[j].seq
	})

	for _, a := range actions {
		if err := a.fn(ctx); err != nil {
			return fmt.Errorf("hook %s: %w", hook, err)
		}
	}
	return nil
}

// HasActions reports whether anything is attached to hook
func (h *Hooks) HasActions(hook string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.actions[hook]) > 0
}
