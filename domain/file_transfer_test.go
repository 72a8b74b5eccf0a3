package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkCount(t *testing.T) {
	tests := []struct {
		description string
		size        uint64
		expected    uint64
	}{
		{description: "empty file has no chunk", size: 0, expected: 0},
		{description: "one byte file", size: 1, expected: 1},
		{description: "exactly one chunk", size: ChunkSize, expected: 1},
		{description: "one byte over a chunk", size: ChunkSize + 1, expected: 2},
		{description: "150000 bytes", size: 150000, expected: 3},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require.Equal(t, tt.expected, ChunkCount(tt.size))
		})
	}
}

func TestProgress(t *testing.T) {
	req := require.New(t)

	req.Equal(float64(100), Progress(0, 0), "empty file is complete")
	req.Equal(float64(0), Progress(0, 150000))
	req.InDelta(43.69, Progress(65536, 150000), 0.01)
	req.InDelta(87.38, Progress(131072, 150000), 0.01)
	req.Equal(float64(100), Progress(150000, 150000))
	req.Less(Progress(149999, 150000), float64(100))
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		description string
		bytes       uint64
		expected    string
	}{
		{description: "zero", bytes: 0, expected: "0 Bytes"},
		{description: "bytes", bytes: 512, expected: "512 Bytes"},
		{description: "one kilobyte", bytes: KB, expected: "1 KB"},
		{description: "fractional kilobytes", bytes: 1536, expected: "1.5 KB"},
		{description: "rounded to two decimals", bytes: 150000, expected: "146.48 KB"},
		{description: "megabytes", bytes: 2 * MB, expected: "2 MB"},
		{description: "gigabytes", bytes: 3 * GB / 2, expected: "1.5 GB"},
		{description: "beyond gigabytes stays in GB", bytes: 2048 * GB, expected: "2048 GB"},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require.Equal(t, tt.expected, FormatFileSize(tt.bytes))
		})
	}
}

func TestMode_Role(t *testing.T) {
	req := require.New(t)

	req.Equal(RoleNone, ModeIdle.Role())
	req.Equal(RoleNone, ModeError.Role())
	req.Equal(RoleSender, ModeSharingWaiting.Role())
	req.Equal(RoleSender, ModeSharingComplete.Role())
	req.Equal(RoleReceiver, ModeReceivingConnecting.Role())
	req.Equal(RoleReceiver, ModeReceivingComplete.Role())
	req.True(ModeReceivingComplete.Complete())
	req.False(ModeSharingSending.Complete())
}
