package upload

import (
	"context"
	"strings"

	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// ExtensionConfig represents the configuration for ExtensionFilter.
type ExtensionConfig struct {
	Audio []string `yaml:"audio" mapstructure:"audio" default:"[\".mp3\"]" validate:"dive,startswith=."`
	Image []string `yaml:"image" mapstructure:"image" default:"[\".jpg\",\".jpeg\",\".png\",\".webp\"]" validate:"dive,startswith=."`
}

// ExtensionFilter checks the file extension against an allow list per kind.
type ExtensionFilter struct {
	config *ExtensionConfig
}

func (f *ExtensionFilter) Name() string {
	return "extension_filter"
}

func (f *ExtensionFilter) Description() string {
	return "Checks the file extension against the allowed extensions"
}

func (f *ExtensionFilter) ReturnCodes() []string {
	return []string{"extension_not_allowed"}
}

func (f *ExtensionFilter) ValidateConfig(settings map[string]any) error {
	var config ExtensionConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}
	config.Audio = lo.Map(config.Audio, func(s string, _ int) string { return strings.ToLower(s) })
	config.Image = lo.Map(config.Image, func(s string, _ int) string { return strings.ToLower(s) })
	f.config = &config
	zlog.Info().Msgf("extension filter config: %+v", config)
	return nil
}

func (f *ExtensionFilter) AppliesTo(kind Kind) bool {
	return kind == KindAudio || kind == KindImage
}

func (f *ExtensionFilter) Check(ctx context.Context, file File) Result {
	// If config is not set, accept all files
	if f.config == nil {
		return Accept()
	}

	allowed := f.config.Audio
	if file.Kind == KindImage {
		allowed = f.config.Image
	}
	if !lo.Contains(allowed, file.Ext()) {
		return Reject("extension_not_allowed")
	}
	return Accept()
}

func init() {
	Register("extension_filter", func() Filter {
		return &ExtensionFilter{}
	})
}
