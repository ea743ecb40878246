package bloom

import (
	"sync"
)

type Stage int

const (
	Default Stage = iota
	AddItem
	TestItem
	ReachCapacity
	RestoreSnapshot
	SaveSnapshot
	LoadSnapshot
)

var stageNames = [...]string{
	"Default",
	"AddItem",
	"TestItem",
	"ReachCapacity",
	"RestoreSnapshot",
	"SaveSnapshot",
	"LoadSnapshot",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "Unknown"
	}
	return stageNames[s]
}

// Hook observes a stage. Hooks run synchronously on the caller's goroutine
// and never under the filter's lock.
type Hook interface {
	GetStage() Stage
	Before(args ...interface{})
	After(optionalErr error, args ...interface{})
	AfterSuccess(args ...interface{})
	AfterFail(err error, args ...interface{})
}

type HookImpl struct {
	Stage          Stage
	BeforeFn       func(args ...interface{})
	AfterSuccessFn func(args ...interface{})
	AfterFailFn    func(err error, args ...interface{})
}

func (h *HookImpl) GetStage() Stage {
	return h.Stage
}

func (h *HookImpl) Before(args ...interface{}) {
	if h.BeforeFn != nil {
		h.BeforeFn(args...)
	}
}

func (h *HookImpl) After(optionalErr error, args ...interface{}) {
	if optionalErr != nil {
		h.AfterFail(optionalErr, args...)
		return
	}
	h.AfterSuccess(args...)
}

func (h *HookImpl) AfterSuccess(args ...interface{}) {
	if h.AfterSuccessFn != nil {
		h.AfterSuccessFn(args...)
	}
}

func (h *HookImpl) AfterFail(err error, args ...interface{}) {
	if h.AfterFailFn != nil {
		h.AfterFailFn(err, args...)
	}
}

type Hooks struct {
	hooks        map[Stage]Hook
	hooksFactory func(stage Stage) Hook
	mu           *sync.RWMutex
}

func NewHooks(hooks ...Hook) *Hooks {
	return NewHooksWithDefault(noOpHookInst, hooks...)
}

func NewHooksWithDefault(defaultHook Hook, hooks ...Hook) *Hooks {
	return NewHooksWithFactory(
		func(stage Stage) Hook {
			return defaultHook
		},
		hooks...,
	)
}

func NewHooksWithFactory(defaultHookFactory func(stage Stage) Hook, hooks ...Hook) *Hooks {
	hs := &Hooks{
		hooks:        make(map[Stage]Hook, len(hooks)),
		hooksFactory: defaultHookFactory,
		mu:           &sync.RWMutex{},
	}
	for _, h := range hooks {
		hs.hooks[h.GetStage()] = h
	}
	return hs
}

func (hs *Hooks) Before(stage Stage, args ...interface{}) {
	hs.getHook(stage).Before(args...)
}

func (hs *Hooks) After(stage Stage, optionalErr error, args ...interface{}) {
	hs.getHook(stage).After(optionalErr, args...)
}

func (hs *Hooks) AfterSuccess(stage Stage, args ...interface{}) {
	hs.getHook(stage).AfterSuccess(args...)
}

func (hs *Hooks) AfterFail(stage Stage, err error, args ...interface{}) {
	hs.getHook(stage).AfterFail(err, args...)
}

func (hs *Hooks) getHook(stage Stage) Hook {
	if hs == nil {
		return noOpHookInst
	}
	hs.mu.RLock()
	h, exists := hs.hooks[stage]
	hs.mu.RUnlock()
	if exists {
		return h
	}
	if hs.hooksFactory == nil {
		return noOpHookInst
	}
	hs.mu.Lock()
	defer hs.mu.Unlock()
	if h, exists = hs.hooks[stage]; !exists {
		h = hs.hooksFactory(stage)
		hs.hooks[stage] = h
	}
	return h
}

var noOpHookInst = noOpHook{}

type noOpHook struct {
}

func (n noOpHook) GetStage() Stage {
	return Default
}

func (n noOpHook) Before(args ...interface{}) {}

func (n noOpHook) After(optionalErr error, args ...interface{}) {}

func (n noOpHook) AfterSuccess(args ...interface{}) {}

func (n noOpHook) AfterFail(err error, args ...interface{}) {}

var _ Hook = &HookImpl{}
var _ Hook = noOpHook{}
