package callback

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// pollInterval is the fixed poll cadence spec.md §9 calls "a design
// constant, not tunable." A time.Ticker-driven periodic os.ReadDir
// scan is used instead of an fsnotify watch specifically to preserve
// this literal cadence semantic — see DESIGN.md.
const pollInterval = 500 * time.Millisecond

var dropFileName = regexp.MustCompile(`^[0-9a-f]{16}\.json$`)

// FSPoller is the pending drop directory poller (spec.md §4.9).
type FSPoller struct {
	dir      string
	resolver Resolver
	log      *slog.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewFSPoller returns a poller over dir, not yet started.
func NewFSPoller(dir string, resolver Resolver, log *slog.Logger) *FSPoller {
	if log == nil {
		log = slog.Default()
	}
	return &FSPoller{
		dir:      dir,
		resolver: resolver,
		log:      log,
		stop:     make(chan struct{}),
	}
}

// Start ensures the drop directory exists and begins scanning it on
// pollInterval in the background.
func (p *FSPoller) Start() error {
	if err := os.MkdirAll(p.dir, 0o700); err != nil {
		return err
	}

	p.wg.Add(1)
	go p.run()
	return nil
}

func (p *FSPoller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.scanOnce()
		case <-p.stop:
			return
		}
	}
}

type dropFile struct {
	Approved bool `json:"approved"`
}

// scanOnce reads every entry in the drop directory once. For each
// file whose name matches a currently pending id (spec.md §4.9), it
// reads, parses, unlinks — the unlink is the commit point and
// precedes the resolver call — then resolves. Files referring to
// unknown ids, or malformed files, are left in place.
func (p *FSPoller) scanOnce() {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		p.log.Warn("fspoll: read dir failed", "error", err)
		return
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !dropFileName.MatchString(name) {
			continue
		}

		id := strings.TrimSuffix(name, ".json")
		if !p.resolver.Pending(id) {
			// Unknown id: an external agent may still be racing to
			// write a pending request under this id. Leave it.
			continue
		}

		path := filepath.Join(p.dir, name)

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var df dropFile
		if err := json.Unmarshal(data, &df); err != nil {
			// Malformed file: leave it in place, a writer may still
			// be completing an (non-atomic) write.
			continue
		}

		if err := os.Remove(path); err != nil {
			continue
		}

		p.resolver.Resolve(id, df.Approved)
	}
}

// Stop halts the background scan goroutine. It does not remove the
// drop directory; any files left by racing external writers remain
// for operator inspection.
func (p *FSPoller) Stop() {
	close(p.stop)
	p.wg.Wait()
}
