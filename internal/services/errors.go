package services

import (
	"errors"
	"strings"
)

// Error markers classify pipeline failures. Every error returned by a stage
// wraps exactly one of them.
var (
	ErrAsset         = errors.New("asset error")
	ErrTranscode     = errors.New("transcode error")
	ErrTranscription = errors.New("transcription error")
	ErrTranslation   = errors.New("translation error")
	ErrPackaging     = errors.New("packaging error")
	ErrConcurrency   = errors.New("concurrency error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
)

var kinds = []struct {
	marker error
	kind   string
	hint   string
}{
	{ErrConcurrency, "concurrency", "wait for the active run to finish"},
	{ErrNotFound, "not_found", "check the project id"},
	{ErrAsset, "asset", "check that the source media exists and has a supported extension"},
	{ErrTranscode, "transcode", "check ffmpeg output in the log and that the source has an audio stream"},
	{ErrTranscription, "transcription", "check the ASR engine installation and that the audio contains speech"},
	{ErrTranslation, "translation", "check that the translation engine is reachable"},
	{ErrPackaging, "packaging", "check free disk space in the project directory"},
	{ErrConfiguration, "configuration", "run 'lingosub config show' and fix the reported key"},
}

// Error is a classified failure with the stage and operation that raised it.
type Error struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	detail := buildDetail(e.Stage, e.Operation, e.Message)
	marker := "service failure"
	if e.Marker != nil {
		marker = e.Marker.Error()
	}
	if e.Cause != nil {
		return marker + ": " + detail + ": " + e.Cause.Error()
	}
	return marker + ": " + detail
}

// Unwrap exposes both the marker and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Marker != nil {
		out = append(out, e.Marker)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	return &Error{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Cause:     err,
	}
}

// Details is the structured view of an error used for logs and persisted state.
type Details struct {
	Kind      string
	Stage     string
	Operation string
	Message   string
	Hint      string
}

// Describe classifies err. Unclassified errors report kind "internal".
func Describe(err error) Details {
	if err == nil {
		return Details{}
	}
	d := Details{Kind: "internal", Message: err.Error(), Hint: "check logs for details"}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			d.Kind = k.kind
			d.Hint = k.hint
			break
		}
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		d.Stage = svcErr.Stage
		d.Operation = svcErr.Operation
	}
	return d
}

// Kind returns the classification name of err.
func Kind(err error) string {
	return Describe(err).Kind
}

// IsFatal reports whether err must halt a pipeline run. Translation failures
// are scoped to one language and never halt a run.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrTranslation)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage != "" {
		parts = append(parts, stage)
	}
	if operation != "" {
		parts = append(parts, operation)
	}
	if message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
