package format_test

import (
	"testing"

	"github.com/ostafen/diskprobe/pkg/util/format"
	"github.com/stretchr/testify/require"
)

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:             "0B",
		512:           "512B",
		1023:          "1023B",
		1024:          "1KB",
		1536:          "1.50KB",
		1 << 20:       "1MB",
		100 << 20:     "100MB",
		3 << 30:       "3GB",
		(5 << 40) / 2: "2.50TB",
		2 << 50:       "2PB",
		-2048:         "-2KB",
	}
	for in, want := range tests {
		require.Equal(t, want, format.FormatBytes(in), "input %d", in)
	}
}

func TestFormatSectors(t *testing.T) {
	require.Equal(t, "1MB", format.FormatSectors(2048, 512))
	require.Equal(t, "4KB", format.FormatSectors(1, 4096))
	require.Equal(t, "0B", format.FormatSectors(0, 512))
}
