// Package linesvc implements delay lines: named per-namespace conduits
// that accept published events and re-emit them to subscribers after the
// line's fixed delay. Published payloads are parked durably before the
// in-memory stage accepts them, so a restart replays everything that was
// still pending with its remaining delay intact.
//
// A line terminates in one of two ways: Close lets already-parked events
// drain before subscribers see completion, while Fault drops everything
// pending and forwards the failure to subscribers immediately.
package linesvc
