package utils

import "time"

// DownloadOptions carries everything the segmented downloader needs besides the
// URL and worker count.
type DownloadOptions struct {
	OutputPath string
	TempDir    string
	KeepParts  bool
	InMemory   bool
	Lenient    bool
	UserAgent  string
	Timeout    time.Duration
}

type ByteRange struct {
	Index int
	Start int64
	End   int64
}

// Len is the number of bytes covered, both ends inclusive.
func (r ByteRange) Len() int64 {
	return r.End - r.Start + 1
}

// ChunkResult refers to a committed chunk sink holding exactly Size bytes.
type ChunkResult struct {
	Index int
	Key   string
	Size  int64
}

type Summary struct {
	JobID      string
	OutputPath string
	TotalSize  int64
	Chunks     int
	Elapsed    time.Duration
}
