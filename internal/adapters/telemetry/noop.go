// Package telemetry holds telemetry implementations that record nothing.
package telemetry

import (
	"context"
	"io"

	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
)

var _ ports.Telemetry = NoOp{}

// NoOp is a ports.Telemetry discarding everything. It is used by tests and non-interactive runs.
type NoOp struct{}

// Record returns ctx carrying a vertex that discards its output.
func (NoOp) Record(ctx context.Context, _ string) (context.Context, ports.Vertex) {
	v := NoOpVertex{}
	return ports.ContextWithVertex(ctx, v), v
}

// Close does nothing.
func (NoOp) Close() error { return nil }

// NoOpVertex is a ports.Vertex discarding everything.
type NoOpVertex struct{}

func (NoOpVertex) Stdout() io.Writer           { return io.Discard }
func (NoOpVertex) Stderr() io.Writer           { return io.Discard }
func (NoOpVertex) Log(domain.LogLevel, string) {}
func (NoOpVertex) Complete(error)              {}
func (NoOpVertex) Cached()                     {}
