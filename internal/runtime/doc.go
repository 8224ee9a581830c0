// Package runtime wires storage, config, and facades into a single-node
// Tempo instance. It exposes Open/Close, basic health checks, and helpers
// to open internal components used by higher-level services.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
//	// Health
//	_ = rt.CheckHealth(context.Background())
//	// Open a parked-item store and park a payload due one second from now
//	st := rt.OpenStore("default", "orders")
//	_, _ = st.Park(time.Now().Add(time.Second).UnixMilli(), time.Now().UnixMilli(), nil, []byte("hello"))
package runtime
