package simcore

// HookPos marks where in a component's processing a Hook fires.
type HookPos struct{ Name string }

// Well-known hook positions, mirroring akita's HookPosReqStart/HookPosReqEnd.
var (
	HookPosBeatRecv = HookPos{Name: "BeatRecv"}
	HookPosBeatSend = HookPos{Name: "BeatSend"}
)

// HookCtx carries the data passed to a Hook invocation.
type HookCtx struct {
	Domain interface{}
	Pos    HookPos
	Item   interface{}
}

// Hook observes component-internal events without altering behavior.
type Hook interface {
	Func(ctx HookCtx)
}

// Hookable can accept Hooks that observe its internal transitions.
type Hookable interface {
	AcceptHook(h Hook)
}

// HookableBase implements Hookable by fanning out to registered hooks.
type HookableBase struct {
	hooks []Hook
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.hooks = append(h.hooks, hook)
}

// InvokeHook fires every registered hook with ctx.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
