package condcache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// Handles call them inline from Load and Refresh.
type Hooks interface {
	// The store confirmed the held version is current.
	NotModified(bucket, key string)

	// A new version was decoded. oldETag is "" when the handle was unfetched.
	Replaced(bucket, key, oldETag, newETag string, size int)

	// A body arrived but could not be decoded; the old handle stays in use.
	DecodeFailed(bucket, key string, size int, err error)

	// The transport returned an error or a malformed response.
	TransportFailed(bucket, key string, err error)

	// The transport answered "not modified" to a read that carried no token.
	ProtocolViolation(bucket, key, reason string)

	// transport/mirror answered from its store after upstream revalidation.
	MirrorServed(storageKey string)

	// A mirror entry failed wire validation and was deleted.
	MirrorCorrupt(storageKey string)

	// Provider returned ok=false on Set (backpressure/eviction).
	MirrorSetRejected(storageKey string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) NotModified(string, string)                   {}
func (NopHooks) Replaced(string, string, string, string, int) {}
func (NopHooks) DecodeFailed(string, string, int, error)      {}
func (NopHooks) TransportFailed(string, string, error)        {}
func (NopHooks) ProtocolViolation(string, string, string)     {}
func (NopHooks) MirrorServed(string)                          {}
func (NopHooks) MirrorCorrupt(string)                         {}
func (NopHooks) MirrorSetRejected(string)                     {}
