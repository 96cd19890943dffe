package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPartial(t *testing.T) {
	c := New()

	tests := []struct {
		filename string
		want     bool
	}{
		// Temporary extensions, including compound forms.
		{"download.tmp", true},
		{"patch.partial", true},
		{"level.downloading", true},
		{"big.chunk", true},
		{"4123.manifest.tmp", true},
		{"4123.chunk.tmp", true},
		{"depot.depot.tmp", true},

		// Name fragments.
		{"manifest_881723.depot", true},
		{"chunk_0001.bin", true},
		{"temp_save.dat", true},
		{"tmp_state", true},
		{"partial_download.bin", true},
		{"game.download.part1", true},
		{"asset.lock", true},
		{"~$document.docx", true},

		// Bookkeeping files.
		{"keys.vdf", true},
		{"appinfo.vdf", true},
		{"package.vdf", true},

		// Real game assets must never classify as partial.
		{"game.exe", false},
		{"save.dat", false},
		{"level1.pak", false},
		{"config.vdf", false},
		{"Temple.bin", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsPartial(tt.filename, ""))
		})
	}
}

func TestIsPartial_CaseInsensitive(t *testing.T) {
	c := New()
	assert.True(t, c.IsPartial("DOWNLOAD.TMP", ""))
	assert.True(t, c.IsPartial("Manifest_123.Depot", ""))
	assert.True(t, c.IsPartial("KEYS.VDF", ""))
}

func TestIsPartial_SessionID(t *testing.T) {
	c := New()

	assert.True(t, c.IsPartial("state_abc123.bin", "abc123"))
	assert.True(t, c.IsPartial("state_ABC123.bin", "abc123"))
	assert.False(t, c.IsPartial("state_other.bin", "abc123"))

	// An empty session id never matches everything.
	assert.False(t, c.IsPartial("state_other.bin", ""))
}
