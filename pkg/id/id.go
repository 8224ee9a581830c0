// Package id generates lexicographically sortable event identifiers for
// parked items and delivery records.
package id

import (
	"encoding/binary"
	"math"
	"sync"
	"time"
)

// ID is a 128-bit identifier encoded as 16 bytes big-endian:
// [8 bytes ms_timestamp][8 bytes sequence]. Byte order equals issue order,
// which keeps parked-store keys scan-friendly.
type ID [16]byte

// Bytes returns the raw 16-byte representation.
func (i ID) Bytes() []byte { b := make([]byte, 16); copy(b, i[:]); return b }

// String returns the lowercase hex form.
func (i ID) String() string {
	const digits = "0123456789abcdef"
	out := make([]byte, 32)
	for n, v := range i {
		out[n*2] = digits[v>>4]
		out[n*2+1] = digits[v&0x0f]
	}
	return string(out)
}

// Compare returns -1, 0, or 1 by lexical byte comparison.
func (i ID) Compare(other ID) int {
	for n := 0; n < 16; n++ {
		if i[n] < other[n] {
			return -1
		}
		if i[n] > other[n] {
			return 1
		}
	}
	return 0
}

// FromBytes rebuilds an ID from its 16-byte form.
func FromBytes(b []byte) (ID, bool) {
	var i ID
	if len(b) != 16 {
		return i, false
	}
	copy(i[:], b)
	return i, true
}

// NowMs returns current time in milliseconds; overridable in tests.
var NowMs = func() int64 { return time.Now().UnixMilli() }

// Generator produces strictly increasing IDs per process.
type Generator struct {
	mu       sync.Mutex
	lastMs   int64
	sequence uint64
}

// NewGenerator creates a Generator.
func NewGenerator() *Generator { return &Generator{} }

// Next returns a new ID. A backwards clock reuses lastMs and bumps the
// sequence; sequence overflow within one millisecond waits for the next one.
func (g *Generator) Next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := NowMs()
	if ms < g.lastMs {
		ms = g.lastMs
	}
	if ms == g.lastMs {
		if g.sequence == math.MaxUint64 {
			for {
				ms = NowMs()
				if ms > g.lastMs {
					break
				}
				time.Sleep(time.Millisecond / 8)
			}
			g.sequence = 0
		} else {
			g.sequence++
		}
	} else {
		g.sequence = 0
	}
	g.lastMs = ms

	var out ID
	binary.BigEndian.PutUint64(out[0:8], uint64(ms))
	binary.BigEndian.PutUint64(out[8:16], g.sequence)
	return out
}
