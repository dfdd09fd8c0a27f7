// Package export drives the external SqlPackage tool to pull a .bacpac from a
// live database. The tool is an opaque subprocess; this package only builds
// its invocation, waits for it and relays its diagnostics.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// ErrToolNotFound means SqlPackage is not installed or not on PATH.
var ErrToolNotFound = errors.New("SqlPackage not found (install it or add it to PATH)")

// Options describes one export run.
type Options struct {
	Server     string
	Database   string
	Username   string
	Password   string
	OutputPath string

	// Observer, when set, is called on a fixed interval while the export
	// runs, with the elapsed time. Purely cosmetic; export correctness
	// never depends on it.
	Observer func(elapsed time.Duration)
	// Interval between observer calls. Zero means 100ms.
	Interval time.Duration
}

func (o Options) connectionString() string {
	return fmt.Sprintf(
		"Server=tcp:%s,1433;"+
			"Initial Catalog=%s;"+
			"Persist Security Info=False;"+
			"User ID=%s;"+
			"Password=%s;"+
			"MultipleActiveResultSets=False;"+
			"Encrypt=True;"+
			"TrustServerCertificate=False;"+
			"Connection Timeout=30;",
		o.Server, o.Database, o.Username, o.Password)
}

// Run exports the database to opts.OutputPath. A stale target file is removed
// first so a failed run can never leave an old package looking current.
// Returns the elapsed wall time.
func Run(opts Options) (time.Duration, error) {
	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755); err != nil {
		return 0, err
	}
	if err := os.Remove(opts.OutputPath); err != nil && !os.IsNotExist(err) {
		return 0, err
	}

	cmd := exec.Command("SqlPackage",
		"/Action:Export",
		"/TargetFile:"+opts.OutputPath,
		"/SourceConnectionString:"+opts.connectionString(),
		"/p:CommandTimeout=600",
		"/p:VerifyExtraction=False",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return 0, ErrToolNotFound
		}
		return 0, fmt.Errorf("failed to start export: %w", err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go watch(opts, start, stop, done)

	err := cmd.Wait()
	close(stop)
	<-done
	elapsed := time.Since(start)

	if err != nil {
		return elapsed, fmt.Errorf("export failed: %w\n%s", err, stderr.String())
	}
	return elapsed, nil
}

// watch invokes the observer on a ticker until stop closes. It carries no
// data and has no effect on the export itself.
func watch(opts Options, start time.Time, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	if opts.Observer == nil {
		<-stop
		return
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			opts.Observer(time.Since(start))
		}
	}
}
