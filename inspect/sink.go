// Package inspect provides runtime introspection for the Lumen engine:
// recursive disassembly of compiled-function graphs, sweeps over the
// engine's interned-string table and live-object list, and a duplicated
// diagnostic output stream.
package inspect

import (
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("lumen.inspect")

// Sink fans diagnostic text out to a mandatory primary writer, an
// optional secondary file, and any number of attached extra writers.
// All writers receive byte-identical content. The secondary file and
// extra writers are best-effort: their failures are logged, never
// propagated, and never disturb primary output.
//
// Sink is process-wide mutable state by contract and assumes
// single-threaded access; callers needing concurrent inspection must
// serialize externally.
type Sink struct {
	primary io.Writer
	file    *os.File
	extra   []io.Writer
}

// NewSink creates a sink writing to primary. A nil primary defaults to
// os.Stdout.
func NewSink(primary io.Writer) *Sink {
	if primary == nil {
		primary = os.Stdout
	}
	return &Sink{primary: primary}
}

// Arm opens path (created or truncated, never appended) as the secondary
// sink, first closing any previously armed file. On open failure the
// previous sink is still released and no secondary sink remains armed.
// An empty path is equivalent to Disarm.
func (s *Sink) Arm(path string) error {
	s.Disarm()
	if path == "" {
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("inspect: arm sink: %w", err)
	}
	s.file = f
	return nil
}

// Disarm flushes and closes the secondary sink if one is armed.
// Idempotent: with no armed sink it is a no-op.
func (s *Sink) Disarm() {
	if s.file == nil {
		return
	}
	if err := s.file.Sync(); err != nil {
		log.Errorf("sync %s: %s", s.file.Name(), err.Error())
	}
	if err := s.file.Close(); err != nil {
		log.Errorf("close %s: %s", s.file.Name(), err.Error())
	}
	s.file = nil
}

// Armed returns the path of the armed secondary sink, or "" if none.
func (s *Sink) Armed() string {
	if s.file == nil {
		return ""
	}
	return s.file.Name()
}

// Attach registers an additional best-effort writer that receives the
// same bytes as the primary sink until detached.
func (s *Sink) Attach(w io.Writer) {
	s.extra = append(s.extra, w)
}

// Detach removes a previously attached writer. Unknown writers are
// ignored.
func (s *Sink) Detach(w io.Writer) {
	for i, e := range s.extra {
		if e == w {
			s.extra = append(s.extra[:i], s.extra[i+1:]...)
			return
		}
	}
}

// Writef formats once and writes the identical bytes to every
// destination. Primary-sink errors are logged too: diagnostics are
// best-effort output, not durable storage, so no write here returns an
// error to the caller. Writes go straight to the underlying descriptors
// (no user-space buffering), so a crash right after a write loses
// nothing.
func (s *Sink) Writef(format string, args ...interface{}) {
	text := fmt.Sprintf(format, args...)

	if _, err := io.WriteString(s.primary, text); err != nil {
		log.Errorf("primary sink write: %s", err.Error())
	}

	if s.file != nil {
		if _, err := s.file.WriteString(text); err != nil {
			log.Errorf("secondary sink write %s: %s", s.file.Name(), err.Error())
		}
	}

	for _, w := range s.extra {
		if _, err := io.WriteString(w, text); err != nil {
			log.Errorf("attached sink write: %s", err.Error())
		}
	}
}
