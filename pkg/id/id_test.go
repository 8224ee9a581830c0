package id

import (
	"testing"
	"time"
)

func TestNextStrictlyIncreasing(t *testing.T) {
	g := NewGenerator()
	NowMs = func() int64 { return 1000 }
	defer func() { NowMs = func() int64 { return time.Now().UnixMilli() } }()

	a := g.Next()
	b := g.Next()
	if a.Compare(b) >= 0 {
		t.Fatalf("expected a < b: %s %s", a, b)
	}
}

func TestClockRegressionKeepsOrdering(t *testing.T) {
	g := NewGenerator()
	ms := int64(1000)
	NowMs = func() int64 { return ms }
	defer func() { NowMs = func() int64 { return time.Now().UnixMilli() } }()

	a := g.Next()
	ms = 900 // clock went backwards
	b := g.Next()
	if a.Compare(b) >= 0 {
		t.Fatalf("expected b > a despite clock regression")
	}
}

func TestRoundTripBytes(t *testing.T) {
	g := NewGenerator()
	a := g.Next()
	back, ok := FromBytes(a.Bytes())
	if !ok || back.Compare(a) != 0 {
		t.Fatalf("round trip failed: %s vs %s", a, back)
	}
	if _, ok := FromBytes([]byte("short")); ok {
		t.Fatalf("expected failure for short input")
	}
}

func TestStringIsHex(t *testing.T) {
	var i ID
	i[0] = 0xAB
	i[15] = 0x01
	s := i.String()
	if len(s) != 32 || s[:2] != "ab" || s[30:] != "01" {
		t.Fatalf("hex form: %q", s)
	}
}
