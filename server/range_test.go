package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	const size = 1000

	tests := []struct {
		header string
		start  int64
		end    int64
		ok     bool
	}{
		{"bytes=0-99", 0, 99, true},
		{"bytes=500-", 500, 999, true},
		{"bytes=-100", 900, 999, true},
		{"bytes=0-", 0, 999, true},
		{"bytes=999-999", 999, 999, true},
		{"bytes=0-5000", 0, 999, true},   // end clamped to size-1
		{"bytes=-5000", 0, 999, true},    // suffix larger than the file
		{"bytes=2000-3000", 0, 0, false}, // start beyond EOF
		{"bytes=1000-", 0, 0, false},
		{"bytes=500-100", 0, 0, false}, // start after end
		{"bytes=abc-def", 0, 0, false},
		{"bytes=-", 0, 0, false},
		{"bytes=", 0, 0, false},
		{"bytes=0-99,200-299", 0, 0, false}, // multi-range unsupported
		{"items=0-99", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tt := range tests {
		br, err := parseRange(tt.header, size)
		if !tt.ok {
			assert.Error(t, err, "header %q", tt.header)
			continue
		}
		require.NoError(t, err, "header %q", tt.header)
		assert.Equal(t, tt.start, br.start, "header %q", tt.header)
		assert.Equal(t, tt.end, br.end, "header %q", tt.header)
	}
}

func TestByteRangeHelpers(t *testing.T) {
	br := byteRange{start: 10, end: 19}
	assert.Equal(t, int64(10), br.length())
	assert.Equal(t, "bytes 10-19/100", br.contentRange(100))
}
