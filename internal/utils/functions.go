package utils

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// OutputNameFromPath returns the last segment of a request path, the name the
// final artifact is written under when no output path is given.
func OutputNameFromPath(requestPath string) string {
	if i := strings.IndexAny(requestPath, "?#"); i >= 0 {
		requestPath = requestPath[:i]
	}
	name := path.Base(requestPath)
	if name == "/" || name == "." || name == "" {
		return "download"
	}
	return name
}

func RenewOutputPath(outputPath string) string {
	dir := filepath.Dir(outputPath)
	base := filepath.Base(outputPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	index := 1
	for {
		outputPath = filepath.Join(dir, fmt.Sprintf("%s-(%d)%s", name, index, ext))
		if _, err := os.Stat(outputPath); os.IsNotExist(err) {
			return outputPath
		}
		index++
	}
}

// PartKey names the sink for one chunk of outputPath.
func PartKey(outputPath string, index int) string {
	return fmt.Sprintf("%s.part%d", filepath.Base(outputPath), index)
}

func PartPrefix(outputPath string) string {
	return filepath.Base(outputPath) + ".part"
}

func ExtractChunkID(key string) (int, error) {
	matches := ChunkIDRegex.FindStringSubmatch(key)
	if len(matches) < 2 {
		return -1, fmt.Errorf("could not extract chunk ID from %s", key)
	}
	return strconv.Atoi(matches[1])
}

// TempDirFor returns the directory holding chunk sinks for outputPath. An
// explicit tempDir wins over the default sibling directory.
func TempDirFor(outputPath, tempDir string) string {
	if tempDir != "" {
		return tempDir
	}
	return filepath.Join(filepath.Dir(outputPath), TempDirName)
}
