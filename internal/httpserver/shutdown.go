package httpserver

import "time"

// ShutdownTimeout controls how long to wait for in-flight requests and
// background workers during graceful shutdown.
var ShutdownTimeout = 15 * time.Second
