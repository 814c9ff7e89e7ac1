package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spboyer/ifccheck/internal/projectconfig"
)

func TestBuildConfig(t *testing.T) {
	defaults := projectconfig.New()

	cfg, err := BuildConfig(Answers{
		Models:  "models/**/*.ifc, annex.yaml",
		Rules:   []string{"check_spaces"},
		Format:  "junit",
		Workers: " 8 ",
		Cache:   true,
	}, defaults)
	require.NoError(t, err)

	assert.Equal(t, []string{"models/**/*.ifc", "annex.yaml"}, cfg.Models)
	assert.Equal(t, []string{"check_spaces"}, cfg.Rules)
	assert.Equal(t, "junit", cfg.Output.Format)
	assert.Equal(t, 8, cfg.Workers)
	require.NotNil(t, cfg.Cache.Enabled)
	assert.True(t, *cfg.Cache.Enabled)
	assert.Equal(t, projectconfig.DefaultCacheDir, cfg.Cache.Dir)
	assert.Equal(t, projectconfig.DefaultDebounce, cfg.Watch.Debounce)

	// defaults are not modified
	assert.False(t, *defaults.Cache.Enabled)
	assert.Nil(t, defaults.Models)
}

func TestBuildConfig_KeepsDefaultFormatAndAllRules(t *testing.T) {
	cfg, err := BuildConfig(Answers{Models: "a.ifc", Workers: "2", Rules: []string{}}, projectconfig.New())
	require.NoError(t, err)
	assert.Equal(t, projectconfig.DefaultFormat, cfg.Output.Format)
	assert.Nil(t, cfg.Rules)
}

func TestBuildConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		answers Answers
		want    string
	}{
		{"no models", Answers{Models: " , ", Workers: "1"}, "model path is required"},
		{"zero workers", Answers{Models: "a.ifc", Workers: "0"}, "workers must be"},
		{"text workers", Answers{Models: "a.ifc", Workers: "many"}, "workers must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildConfig(tt.answers, projectconfig.New())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"single", "hello", []string{"hello"}},
		{"multiple", "a, b, c", []string{"a", "b", "c"}},
		{"with blanks", "a,, b, ,c", []string{"a", "b", "c"}},
		{"whitespace only", "  ,  ,  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitAndTrim(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}
