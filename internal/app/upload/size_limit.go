package upload

import "context"

// SizeLimitConfig represents the configuration for SizeLimitFilter.
type SizeLimitConfig struct {
	MaxMB      float64 `yaml:"max_mb" mapstructure:"max_mb" default:"50" validate:"gt=0"`
	ImageMaxMB float64 `yaml:"image_max_mb" mapstructure:"image_max_mb" default:"5" validate:"gt=0"`
}

// SizeLimitFilter rejects empty files and files above the size limit.
type SizeLimitFilter struct {
	config *SizeLimitConfig
}

func (f *SizeLimitFilter) Name() string {
	return "size_limit_filter"
}

func (f *SizeLimitFilter) Description() string {
	return "Checks that the file is not empty and within the size limit"
}

func (f *SizeLimitFilter) ReturnCodes() []string {
	return []string{"file_empty", "file_too_large"}
}

func (f *SizeLimitFilter) ValidateConfig(settings map[string]any) error {
	var config SizeLimitConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}
	f.config = &config
	return nil
}

func (f *SizeLimitFilter) AppliesTo(kind Kind) bool {
	return true
}

func (f *SizeLimitFilter) Check(ctx context.Context, file File) Result {
	if file.Size() == 0 {
		return Reject("file_empty")
	}
	if f.config == nil {
		return Accept()
	}

	limit := f.config.MaxMB
	if file.Kind == KindImage {
		limit = f.config.ImageMaxMB
	}
	if float64(file.Size()) > limit*1024*1024 {
		return Reject("file_too_large")
	}
	return Accept()
}

func init() {
	Register("size_limit_filter", func() Filter {
		return &SizeLimitFilter{}
	})
}
