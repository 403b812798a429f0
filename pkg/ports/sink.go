package ports

// DebugSink abstracts debug output for intermediate results.
// It allows saving intermediate capture results for debugging purposes.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveSnapshot saves the raw snapshot read from a viewport.
	SaveSnapshot(index int, name string, data []byte) error

	// SaveCaptureJSON saves the capture metadata as JSON.
	SaveCaptureJSON(data []byte) error
}
