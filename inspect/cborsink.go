package inspect

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("inspect: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Record is one framed chunk of the diagnostic stream as consumed by
// telemetry tooling.
type Record struct {
	Seq  uint64 `cbor:"1,keyasint"`
	Text string `cbor:"2,keyasint"`
}

// CBORWriter frames everything written to it as a sequence of
// canonical-CBOR Records on the underlying writer. Attach one to a
// Sink to export the diagnostic stream for machine consumption
// alongside the plain-text sinks.
type CBORWriter struct {
	w   io.Writer
	seq uint64
}

// NewCBORWriter creates a CBORWriter over w.
func NewCBORWriter(w io.Writer) *CBORWriter {
	return &CBORWriter{w: w}
}

// Write implements io.Writer. Each call becomes one Record.
func (c *CBORWriter) Write(p []byte) (int, error) {
	c.seq++
	rec := Record{Seq: c.seq, Text: string(p)}

	data, err := cborEncMode.Marshal(&rec)
	if err != nil {
		return 0, fmt.Errorf("inspect: marshal record: %w", err)
	}
	if _, err := c.w.Write(data); err != nil {
		return 0, fmt.Errorf("inspect: write record: %w", err)
	}
	return len(p), nil
}

// DecodeRecords parses a stream of Records previously produced by a
// CBORWriter. Used by tooling and tests.
func DecodeRecords(r io.Reader) ([]Record, error) {
	dec := cbor.NewDecoder(r)
	var records []Record
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				return records, nil
			}
			return nil, fmt.Errorf("inspect: decode record: %w", err)
		}
		records = append(records, rec)
	}
}
