// Package parked persists a delay line's not-yet-due items so pending
// deliveries survive a restart.
//
// # Keyspace
//
// All keys are prefixed with ns/{namespace}/line/{line}/:
//
//	parked/{due_ms_be8}/{id16} - one buffered item, value is the record codec below
//
// Due time leads the key, so a forward range scan yields items in due-time
// order, which for a fixed per-line delay is also arrival order. The 16-byte
// id is a process-monotonic tiebreaker for items sharing a millisecond.
//
// # Record codec
//
// varint headerLen | header | payload | crc32c(header|payload), where the
// header is 8 bytes of big-endian published-at milliseconds followed by the
// user headers as JSON.
//
// At boot, Recover replays surviving items oldest-first so the owning stage
// can re-buffer them with their remaining delays.
package parked
