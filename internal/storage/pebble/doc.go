// Package pebblestore wraps a Pebble database with Tempo's durability policy
// and small read/write helpers.
//
// Parked items, line metadata, and namespace records all live in one Pebble
// keyspace; callers build their own keys and use Get/Set/Delete for point
// operations, NewBatch/CommitBatch for atomic multi-key updates, and NewIter
// for ordered range scans.
//
// Example:
//
//	db, _ := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
//	defer db.Close()
//	_ = db.Set([]byte("k"), []byte("v"))
package pebblestore
