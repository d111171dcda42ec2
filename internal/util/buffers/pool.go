// Package buffers provides reusable byte buffers for the upload hashing
// pass and the chunked download streamer, reducing GC pressure under
// concurrent work orders.
package buffers

import (
	"sync"
	"sync/atomic"

	"github.com/octaspace/transfer-manager/internal/constants"
)

var (
	hashAllocations  int64
	chunkAllocations int64
)

var (
	// hashPool provides buffers sized for the streamed MD5 pass over a
	// local_file_path during Upload.initialize() (16 MiB reads).
	hashPool = &sync.Pool{
		New: func() interface{} {
			atomic.AddInt64(&hashAllocations, 1)
			buf := make([]byte, constants.HashReadSize)
			return &buf
		},
	}

	// chunkPool provides 1 MiB (UploadChunkSize) buffers for the download
	// streamer's reads while executing a download work order.
	chunkPool = &sync.Pool{
		New: func() interface{} {
			atomic.AddInt64(&chunkAllocations, 1)
			buf := make([]byte, constants.UploadChunkSize)
			return &buf
		},
	}
)

// GetHashBuffer retrieves a buffer sized for hash-pass reads.
func GetHashBuffer() *[]byte {
	return hashPool.Get().(*[]byte)
}

// PutHashBuffer returns a hash-pass buffer to the pool.
func PutHashBuffer(buf *[]byte) {
	if buf != nil && len(*buf) == constants.HashReadSize {
		hashPool.Put(buf)
	}
}

// GetChunkBuffer retrieves a buffer sized for one upload chunk.
func GetChunkBuffer() *[]byte {
	return chunkPool.Get().(*[]byte)
}

// PutChunkBuffer returns an upload-chunk buffer to the pool.
func PutChunkBuffer(buf *[]byte) {
	if buf != nil && len(*buf) == constants.UploadChunkSize {
		chunkPool.Put(buf)
	}
}

// Stats reports pool allocation counters, useful for diagnosing GC pressure
// under heavy concurrent transfer load.
type Stats struct {
	HashBufferSize    int
	ChunkBufferSize   int
	HashAllocations   int64
	ChunkAllocations  int64
}

// GetStats returns current buffer pool statistics.
func GetStats() Stats {
	return Stats{
		HashBufferSize:   constants.HashReadSize,
		ChunkBufferSize:  constants.UploadChunkSize,
		HashAllocations:  atomic.LoadInt64(&hashAllocations),
		ChunkAllocations: atomic.LoadInt64(&chunkAllocations),
	}
}
