// Package upload provides the check chain run on files before they are
// stored in object storage.
package upload

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Kind is the kind of uploaded file.
type Kind string

const (
	KindAudio Kind = "audio" // Song file
	KindImage Kind = "image" // Album artwork
)

// File is an uploaded file held in memory.
type File struct {
	Name string
	Kind Kind
	Data []byte
}

// Ext returns the lower-cased extension including the dot.
func (f *File) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// Size returns the file size in bytes.
func (f *File) Size() int64 {
	return int64(len(f.Data))
}

// ContentType returns the MIME type detected from the file content.
func (f *File) ContentType() string {
	return mimetype.Detect(f.Data).String()
}

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "extension_not_allowed", "file_too_large"
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// RejectedError is returned when a file does not pass the chain.
type RejectedError struct {
	File string
	Code string
}

func (e *RejectedError) Error() string {
	return "upload " + e.File + " rejected: " + e.Code
}

// Filter is the interface for upload filters.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// ValidateConfig validates and applies the filter configuration.
	ValidateConfig(settings map[string]any) error
	// AppliesTo returns true if this filter checks files of the given kind.
	AppliesTo(kind Kind) bool
	// Check performs the filter check.
	Check(ctx context.Context, f File) Result
}

// registry holds registered filter factories.
var registry = make(map[string]func() Filter)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func() Filter {
	return registry
}

// decodeSettings decodes filter settings into out, applies defaults and
// validates the result.
func decodeSettings(settings map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}

	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	validate := validator.New()
	if err := validate.Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
