package upload

import (
	"context"
	"strings"
)

// MimeTypeConfig represents the configuration for MimeTypeFilter.
type MimeTypeConfig struct {
	AudioPrefix string `yaml:"audio_prefix" mapstructure:"audio_prefix" default:"audio/" validate:"required"`
	ImagePrefix string `yaml:"image_prefix" mapstructure:"image_prefix" default:"image/" validate:"required"`
}

// MimeTypeFilter checks that the detected content type matches the file kind.
// The content is sniffed; the name and declared type are not trusted.
type MimeTypeFilter struct {
	config *MimeTypeConfig
}

func (f *MimeTypeFilter) Name() string {
	return "mimetype_filter"
}

func (f *MimeTypeFilter) Description() string {
	return "Checks the detected MIME type of the file content"
}

func (f *MimeTypeFilter) ReturnCodes() []string {
	return []string{"content_type_mismatch"}
}

func (f *MimeTypeFilter) ValidateConfig(settings map[string]any) error {
	var config MimeTypeConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}
	f.config = &config
	return nil
}

func (f *MimeTypeFilter) AppliesTo(kind Kind) bool {
	return kind == KindAudio || kind == KindImage
}

func (f *MimeTypeFilter) Check(ctx context.Context, file File) Result {
	if f.config == nil {
		return Accept()
	}

	prefix := f.config.AudioPrefix
	if file.Kind == KindImage {
		prefix = f.config.ImagePrefix
	}
	if !strings.HasPrefix(file.ContentType(), prefix) {
		return Reject("content_type_mismatch")
	}
	return Accept()
}

func init() {
	Register("mimetype_filter", func() Filter {
		return &MimeTypeFilter{}
	})
}
