package documents

import "fmt"

// ExtractionError reports a document that could not be turned into text:
// an unsupported format, an unreadable file, or a file that yields no
// non-empty text units. These are user-correctable by uploading a
// different document.
type ExtractionError struct {
	Filename string
	Reason   string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.Filename, e.Reason, e.Err)
	}
	return fmt.Sprintf("extract %s: %s", e.Filename, e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// IngestionError reports a failure after extraction succeeded:
// vectorization or persistence of the chunk partition. Ingestion is
// retryable by re-uploading; no partial partition is left visible.
type IngestionError struct {
	Stage string
	Err   error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest: %s: %v", e.Stage, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// ConfigError reports invalid processing parameters. It is returned at
// construction time so a misconfigured deployment fails at startup
// rather than on the first upload.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid processing config: %s", e.Reason)
}
