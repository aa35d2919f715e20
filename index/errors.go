package index

import "errors"

// Surfaced to callers. EndOfFile is raised by the relation scanner and
// caught internally by Build; it never escapes this package.
var (
	ErrBadIndexInfo       = errors.New("index: metadata does not match open arguments")
	ErrBadOpcodes         = errors.New("index: startScan called with wrong operator direction")
	ErrBadScanrange       = errors.New("index: lowVal is greater than highVal")
	ErrNoSuchKeyFound     = errors.New("index: no entry satisfies the requested range")
	ErrScanNotInitialized = errors.New("index: scanNext/endScan called without a startScan")
	ErrIndexScanCompleted = errors.New("index: scanNext called past the last qualifying entry")
	ErrFileNotFound       = errors.New("index: file does not exist")
)
