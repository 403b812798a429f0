package ports

// FileSystem abstracts the files mapshot reads and writes: saved frames,
// downloaded artifacts, debug output and reports.
type FileSystem interface {
	// ReadFile reads a whole file, such as a saved frame.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to path. Implementations should not leave a
	// partially written file behind on failure.
	WriteFile(path string, data []byte) error

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string) error

	// Exists reports whether path exists. Used to avoid overwriting downloads.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory, such as a discarded download.
	Remove(path string) error
}
