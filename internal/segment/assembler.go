package segment

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tanq16/segdl/internal/storage"
	"github.com/tanq16/segdl/internal/utils"
)

// Assemble concatenates the chunk sinks in index order into outputPath. The
// data goes to a hidden temp file first and is renamed into place only after
// every chunk and the total size check out.
func Assemble(ctx context.Context, store *storage.Store, results []utils.ChunkResult, totalSize int64, outputPath string) (int64, error) {
	log := utils.GetLogger("assembler")
	for i, res := range results {
		if res.Index != i || res.Key == "" {
			return 0, fmt.Errorf("%w: chunk %d missing from results", utils.ErrReassemblyFailed, i)
		}
	}
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("%w: error creating output directory: %v", utils.ErrReassemblyFailed, err)
	}
	tempFile, err := os.CreateTemp(dir, "."+filepath.Base(outputPath)+".*.assembling")
	if err != nil {
		return 0, fmt.Errorf("%w: error creating output file: %v", utils.ErrReassemblyFailed, err)
	}
	tempPath := tempFile.Name()
	committed := false
	defer func() {
		if !committed {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	buffer := make([]byte, utils.DefaultBufferSize)
	var totalWritten int64
	for _, res := range results {
		written, err := appendChunk(ctx, store, tempFile, res, buffer)
		if err != nil {
			return totalWritten, err
		}
		totalWritten += written
		log.Debug().Int("chunkId", res.Index).Int64("bytes", written).Msg("Chunk appended")
	}
	if totalWritten != totalSize {
		return totalWritten, fmt.Errorf("%w: total written bytes (%d) doesn't match expected file size (%d)", utils.ErrReassemblyFailed, totalWritten, totalSize)
	}
	if err := tempFile.Sync(); err != nil {
		return totalWritten, fmt.Errorf("%w: %v", utils.ErrReassemblyFailed, err)
	}
	if err := tempFile.Close(); err != nil {
		return totalWritten, fmt.Errorf("%w: %v", utils.ErrReassemblyFailed, err)
	}
	if err := os.Rename(tempPath, outputPath); err != nil {
		os.Remove(tempPath)
		committed = true
		return totalWritten, fmt.Errorf("%w: error renaming (finalizing) output file: %v", utils.ErrReassemblyFailed, err)
	}
	committed = true
	log.Debug().Int64("totalBytes", totalWritten).Str("outputFile", outputPath).Msg("File assembly completed")
	return totalWritten, nil
}

func appendChunk(ctx context.Context, store *storage.Store, dst io.Writer, res utils.ChunkResult, buffer []byte) (int64, error) {
	r, size, err := store.Open(ctx, res.Key)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", utils.ErrReassemblyFailed, err)
	}
	defer r.Close()
	if size != res.Size {
		return 0, fmt.Errorf("%w: chunk %d holds %d bytes, expected %d", utils.ErrReassemblyFailed, res.Index, size, res.Size)
	}
	written, err := io.CopyBuffer(dst, r, buffer)
	if err != nil {
		return written, fmt.Errorf("%w: error copying chunk %d: %v", utils.ErrReassemblyFailed, res.Index, err)
	}
	if written != res.Size {
		return written, fmt.Errorf("%w: wrote %d bytes but chunk %d size is %d", utils.ErrReassemblyFailed, written, res.Index, res.Size)
	}
	return written, nil
}
