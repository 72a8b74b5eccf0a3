package domain

import (
	"math"
	"strconv"
)

const (
	KB = 1024
	MB = KB * KB
	GB = MB * KB
)

// ChunkSize is the largest payload carried by a single CHUNK message.
const ChunkSize = 64 * KB

// FileMetadata describes the file announced by the sender.
// It is immutable once sent and defines the byte count expected by the receiver.
type FileMetadata struct {
	Name     string
	Size     uint64
	MimeType string
}

// Handle identifies an assembled file for the presentation layer.
// Depending on the assembler it is a path on disk or an in-memory key.
type Handle string

// SharedFile is the assembled file exposed once a receiving session completes.
type SharedFile struct {
	FileName string
	FileSize uint64
	FileType string
	Handle   Handle
}

// ChunkCount returns how many CHUNK messages a file of the given size produces.
func ChunkCount(size uint64) uint64 {
	return (size + ChunkSize - 1) / ChunkSize
}

// Progress returns done/total as a percentage.
// An empty file is complete by definition.
func Progress(done, total uint64) float64 {
	if total == 0 {
		return 100
	}
	if done >= total {
		return 100
	}
	return float64(done) / float64(total) * 100
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count the way it is shown to users: "0 Bytes", "1.5 KB", "2 MB".
func FormatFileSize(bytes uint64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	v, i := float64(bytes), 0
	for v >= KB && i < len(sizeUnits)-1 {
		v /= KB
		i++
	}
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}
