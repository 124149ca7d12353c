package health

import (
	"context"
	"fmt"
	"os"
)

// DirectoryCheck returns a CheckFunc that verifies path exists and is a
// directory. Storage roots live on network mounts that can drop out from
// under a running process.
func DirectoryCheck(path string) CheckFunc {
	return func(ctx context.Context) error {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", path)
		}
		return nil
	}
}

// DBPinger is the subset of *sql.DB the database check needs.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// DatabaseCheck returns a CheckFunc that pings the job store database.
func DatabaseCheck(db DBPinger) CheckFunc {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}

// Pinger is satisfied by clients that can probe their upstream, such as the
// data hub client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServiceCheck returns a CheckFunc that probes an upstream service.
func ServiceCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}
