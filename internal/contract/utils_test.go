package contract

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/firewatch/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetColorLabel(t *testing.T) {
	for _, level := range schema.AllLevels {
		t.Run(string(level), func(t *testing.T) {
			result := GetColorLabel(level)
			// Should contain the plain label
			assert.Contains(t, result, string(level))
		})
	}
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "test_output.txt")

		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		assert.NotNil(t, file)
		_ = file.Close()

		// Verify file was created
		_, err = os.Stat(tempFile)
		assert.NoError(t, err)
	})
}

func TestGetDBFilePath(t *testing.T) {
	path := GetDBFilePath()

	assert.NotEmpty(t, path)
	assert.True(t, strings.HasSuffix(path, ".firewatch.db"))
}

func TestFormatOptional(t *testing.T) {
	nan := math.NaN()
	v := 23.456
	assert.Equal(t, "-", FormatOptional(nil, 1))
	assert.Equal(t, "-", FormatOptional(&nan, 1))
	assert.Equal(t, "23.5", FormatOptional(&v, 1))
	assert.Equal(t, "23", FormatOptional(&v, 0))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "high te...", TruncateText("high temperature (31°C > 30°C)", 10))
	assert.Equal(t, "abcdef", TruncateText("abcdef", 3)) // too narrow to truncate
}

func TestParseBoolString(t *testing.T) {
	tests := []struct {
		input     string
		expected  bool
		expectErr bool
	}{
		{"yes", true, false},
		{"TRUE", true, false},
		{"1", true, false},
		{"no", false, false},
		{"False", false, false},
		{"0", false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBoolString(tt.input)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
