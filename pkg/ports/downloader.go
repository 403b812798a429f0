package ports

import "context"

// Downloader hands a finished artifact to the host's save/download flow.
// Ownership of data passes to the downloader; no completion callback exists.
type Downloader interface {
	Download(ctx context.Context, filename string, data []byte) error
}

// Discarder is implemented by downloaders that can take back an artifact
// they already delivered.
type Discarder interface {
	// Discard removes the artifact delivered under filename.
	Discard(ctx context.Context, filename string) error
}
