package monitoring

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ud28188-create/codonyx.org/internal/database"
)

// Database pings the primary database. A failed ping takes the service down.
func Database(db *gorm.DB) Check {
	return NewCheck("database", func(ctx context.Context) ProbeResult {
		if db == nil {
			return ProbeResult{Status: StatusDown, Details: "database not configured"}
		}
		return ResultFromError(database.Ping(ctx, db))
	})
}

// PingFunc adapts a client ping to the probe interface.
type PingFunc func(ctx context.Context) error

// Redis probes the shared cache. Sessions and rate limits fall back to the database,
// so an unreachable Redis only degrades the service.
func Redis(ping PingFunc) Check {
	return NewCheck("redis", func(ctx context.Context) ProbeResult {
		if ping == nil {
			return ProbeResult{Status: StatusUp, Details: "redis disabled"}
		}
		if err := ping(ctx); err != nil {
			return ProbeResult{Status: StatusDegraded, Details: err.Error()}
		}
		return ProbeResult{Status: StatusUp}
	})
}

// ConnectionCounter is satisfied by the realtime hub.
type ConnectionCounter interface {
	Connections() int
}

// Realtime reports the number of open websocket clients.
func Realtime(counter ConnectionCounter) Check {
	return NewCheck("realtime", func(context.Context) ProbeResult {
		if counter == nil {
			return ProbeResult{Status: StatusDegraded, Details: "realtime hub unavailable"}
		}
		return ProbeResult{Status: StatusUp, Details: fmt.Sprintf("%d connections", counter.Connections())}
	})
}
