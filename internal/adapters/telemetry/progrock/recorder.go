// Package progrock provides the Progrock implementation of the telemetry adapter.
package progrock

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/gany/internal/core/ports"
)

var _ ports.Telemetry = (*Recorder)(nil)

// Recorder implements ports.Telemetry on a progrock tape.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder
	seq atomic.Uint64
}

// New creates a new Recorder with a default tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
}

// Record starts a vertex. When ctx already carries a vertex the new one is recorded as its child.
func (r *Recorder) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	// Transactions repeat action names, so every vertex gets its own digest.
	d := digest.FromString(name + "#" + strconv.FormatUint(r.seq.Add(1), 10))

	var opts []progrock.VertexOpt
	if parent, ok := ports.VertexFromContext(ctx); ok {
		if p, ok := parent.(*Vertex); ok {
			opts = append(opts, progrock.WithInputs(p.digest))
		}
	}

	vertex := &Vertex{
		vertex: r.rec.Vertex(d, name, opts...),
		digest: d,
	}
	return ports.ContextWithVertex(ctx, vertex), vertex
}

// Close flushes the recording session when the writer supports it.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
