package job

import (
	"context"
	"errors"

	"github.com/maauso/speechprep/internal/audio"
)

// ErrorKind classifies why a file failed.
type ErrorKind string

const (
	// KindUnsupportedFormat means the input extension is not supported.
	KindUnsupportedFormat ErrorKind = "unsupported_format"
	// KindTranscodeFailed means the external transcoder exited with an error.
	KindTranscodeFailed ErrorKind = "transcode_failed"
	// KindDecodeFailed means the audio data could not be decoded.
	KindDecodeFailed ErrorKind = "decode_failed"
	// KindInvalidOptions means the segmentation options were rejected.
	KindInvalidOptions ErrorKind = "invalid_options"
	// KindPublishFailed means outputs were written but could not be published.
	KindPublishFailed ErrorKind = "publish_failed"
	// KindCancelled means the run was cancelled while the file was processing.
	KindCancelled ErrorKind = "cancelled"
	// KindIO covers every other failure, typically file system errors.
	KindIO ErrorKind = "io"
)

// errPublish marks publish failures for classification.
var errPublish = errors.New("publish outputs")

// Classify maps an error returned by a pipeline operation to an ErrorKind.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, audio.ErrUnsupportedFormat):
		return KindUnsupportedFormat
	case errors.Is(err, audio.ErrTranscodeFailed):
		return KindTranscodeFailed
	case errors.Is(err, audio.ErrDecodeFailed):
		return KindDecodeFailed
	case errors.Is(err, audio.ErrInvalidSplitOpts):
		return KindInvalidOptions
	case errors.Is(err, errPublish):
		return KindPublishFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	default:
		return KindIO
	}
}
