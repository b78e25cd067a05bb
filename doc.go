// Package condcache keeps a typed copy of a single remote object and refetches
// it only when the store reports a new version.
//
// Components:
//   - Handle[V]: identity (bucket, key), a Decoder[V] and, once fetched, the
//     decoded body together with the validation token (ETag) it came with.
//   - codec.Decoder[V]: turns the raw object body into a V (bytes, UTF-8 text,
//     JSON, CBOR, msgpack, protobuf, YAML, TOML).
//   - Transport: performs one conditional read. Implementations live under
//     transport/ (S3, Redis, local filesystem, in-memory, mirror).
//
// Refresh pattern:
//
//	h := condcache.New("bucket", "config.json", codec.JSON[Config]{})
//	for range ticker.C {
//	    next, err := h.Refresh(ctx, tr)
//	    switch {
//	    case err != nil: // keep h, it is still the last good value
//	    case next == nil: // not modified
//	    default:
//	        h = next
//	    }
//	}
//
// Handles are immutable. A refresh never modifies the receiver, so a handle can
// be read by other goroutines while a refresh is in flight.
package condcache
