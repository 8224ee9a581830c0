package parked

import (
	"encoding/binary"

	"github.com/osamaakb/tempo/pkg/id"
)

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - ns/{ns}/line/{line}/parked/{due_ms_be8}/{id16}

var (
	sep       = byte('/')
	nsPrefix  = []byte("ns/")
	lineSeg   = []byte("/line/")
	parkedSeg = []byte("/parked/")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// KeyPrefix returns the range prefix covering every parked item of a line.
func KeyPrefix(namespace, line string) []byte {
	k := make([]byte, 0, len(namespace)+len(line)+20)
	k = append(k, nsPrefix...)
	k = append(k, namespace...)
	k = append(k, lineSeg...)
	k = append(k, line...)
	k = append(k, parkedSeg...)
	return k
}

// KeyItem builds the key for one parked item. The big-endian due time keeps
// scan order equal to due-time order.
func KeyItem(namespace, line string, dueAtMs int64, itemID id.ID) []byte {
	k := KeyPrefix(namespace, line)
	k = appendBE8(k, uint64(dueAtMs))
	k = append(k, sep)
	k = append(k, itemID[:]...)
	return k
}

// keyUpperBound returns the exclusive upper bound for a line's parked range.
func keyUpperBound(namespace, line string) []byte {
	return append(KeyPrefix(namespace, line), 0xFF)
}

// parseItemKey extracts the due time and id from a full item key.
func parseItemKey(prefix, key []byte) (dueAtMs int64, itemID id.ID, ok bool) {
	rest := key[len(prefix):]
	if len(rest) != 8+1+16 {
		return 0, id.ID{}, false
	}
	dueAtMs = int64(binary.BigEndian.Uint64(rest[:8]))
	copy(itemID[:], rest[9:])
	return dueAtMs, itemID, true
}
