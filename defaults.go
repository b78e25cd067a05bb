package condcache

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// Option configures the ambient collaborators of a handle.
// Successor handles produced by Refresh inherit them.
type Option func(*options)

type options struct {
	log   Logger
	hooks Hooks
}

// WithLogger sets the logger. nil keeps NopLogger.
func WithLogger(l Logger) Option { return func(o *options) { o.log = l } }

// WithHooks sets the event hooks. nil keeps NopHooks.
func WithHooks(h Hooks) Option { return func(o *options) { o.hooks = h } }

// LoggerOrNop returns l, or NopLogger when l is nil. For transports that
// accept an optional Logger in their Config.
func LoggerOrNop(l Logger) Logger { return coalesce[Logger](l, NopLogger{}) }

// HooksOrNop returns h, or NopHooks when h is nil.
func HooksOrNop(h Hooks) Hooks { return coalesce[Hooks](h, NopHooks{}) }
