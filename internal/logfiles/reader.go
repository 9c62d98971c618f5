// Package logfiles reads plain-text application logs and prepares them for
// model analysis: collection, size reduction, redaction and prompt building.
package logfiles

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/olegiv/logissue-ai-go/internal/analyzer"
	"github.com/olegiv/logissue-ai-go/internal/logging"
)

// Compile-time interface check
var _ analyzer.LogReader = (*Reader)(nil)

// logExtensions are the file extensions collected from directories.
var logExtensions = map[string]bool{
	".log": true,
	".txt": true,
}

// Reader collects log text from a single file or a directory tree.
// Implements analyzer.LogReader interface.
type Reader struct {
	maxSizeMB           int
	enablePreprocessing bool
	maxTokens           int
	preprocessor        *Preprocessor
	log                 *logging.SecureLogger
}

// NewReader creates a new log reader. log may be nil.
func NewReader(maxSizeMB int, enablePreprocessing bool, maxTokens int, log *logging.SecureLogger) *Reader {
	return &Reader{
		maxSizeMB:           maxSizeMB,
		enablePreprocessing: enablePreprocessing,
		maxTokens:           maxTokens,
		preprocessor:        NewPreprocessor(maxTokens),
		log:                 log,
	}
}

// Read implements analyzer.LogReader.Read.
// A file path is read as is; a directory is walked recursively for .log and
// .txt files. Contents are joined with newlines. Unreadable files are skipped
// with a warning. When nothing readable remains, analyzer.NoReadableContent is
// returned.
func (r *Reader) Read(sourcePath string) (string, error) {
	path, info, err := r.resolve(sourcePath)
	if err != nil {
		return "", err
	}

	var logs []string

	if info.Mode().IsRegular() {
		if r.exceedsLimit(info.Size()) {
			return "", fmt.Errorf("log file exceeds maximum size of %dMB (size: %.2fMB)",
				r.maxSizeMB, float64(info.Size())/1024/1024)
		}
		content, err := readFile(path)
		if err != nil {
			r.log.Warn().Str("path", path).Err(err).Msg("Error reading log file")
		} else {
			logs = append(logs, content)
		}
	} else {
		logs = r.readDir(path)
	}

	combined := strings.TrimSpace(strings.Join(logs, "\n"))
	if combined == "" {
		return analyzer.NoReadableContent, nil
	}

	if r.enablePreprocessing && r.preprocessor.ShouldProcess(combined, r.maxTokens) {
		r.log.Info().
			Int("estimated_tokens", r.preprocessor.EstimateTokens(combined)).
			Int("max_tokens", r.maxTokens).
			Msg("Preprocessing oversized log content")
		processed, err := r.preprocessor.Process(combined)
		if err != nil {
			return "", fmt.Errorf("preprocessing failed: %w", err)
		}
		return processed, nil
	}

	return combined, nil
}

// readDir walks dir and returns the contents of every readable log file.
func (r *Reader) readDir(dir string) []string {
	var logs []string

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			r.log.Warn().Str("path", path).Err(err).Msg("Skipping unreadable path")
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isLogFile(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			r.log.Warn().Str("path", path).Err(err).Msg("Skipping log file")
			return nil
		}
		if r.exceedsLimit(info.Size()) {
			r.log.Warn().
				Str("path", path).
				Int64("size_bytes", info.Size()).
				Int("max_size_mb", r.maxSizeMB).
				Msg("Skipping oversized log file")
			return nil
		}

		content, err := readFile(path)
		if err != nil {
			r.log.Warn().Str("path", path).Err(err).Msg("Skipping log file")
			return nil
		}
		logs = append(logs, content)
		return nil
	})

	return logs
}

// GetSourceInfo implements analyzer.LogReader.GetSourceInfo.
func (r *Reader) GetSourceInfo(sourcePath string) (*analyzer.SourceInfo, error) {
	path, info, err := r.resolve(sourcePath)
	if err != nil {
		return nil, err
	}

	if info.Mode().IsRegular() {
		return &analyzer.SourceInfo{Path: path, Files: 1, SizeBytes: info.Size()}, nil
	}

	result := &analyzer.SourceInfo{Path: path}
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isLogFile(d.Name()) {
			return nil
		}
		result.Files++
		if fi, err := d.Info(); err == nil {
			result.SizeBytes += fi.Size()
		}
		return nil
	})

	return result, nil
}

// resolve makes sourcePath absolute and checks that it is a file or directory.
func (r *Reader) resolve(sourcePath string) (string, os.FileInfo, error) {
	path, err := filepath.Abs(sourcePath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve path %s: %w", sourcePath, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, &PathNotFoundError{Path: path}
		}
		return "", nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if !info.Mode().IsRegular() && !info.IsDir() {
		return "", nil, &PathNotFoundError{Path: path}
	}

	return path, info, nil
}

func (r *Reader) exceedsLimit(size int64) bool {
	if r.maxSizeMB <= 0 {
		return false
	}
	return size > int64(r.maxSizeMB)*1024*1024
}

func isLogFile(name string) bool {
	return logExtensions[strings.ToLower(filepath.Ext(name))]
}

// readFile reads a file as text, dropping invalid UTF-8 sequences.
func readFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(content), ""), nil
}
