package videos

import "errors"

var (
	// ErrEmptyRecording is returned when a recording produced no data.
	ErrEmptyRecording = errors.New("recording is empty")
	// ErrTitleRequired is returned when a recording is published without a title.
	ErrTitleRequired = errors.New("video title is required")
	// ErrNoThumbnail reports that no frame could be extracted from a recording.
	ErrNoThumbnail = errors.New("no thumbnail could be extracted")
)
