package logfiles

import "fmt"

// PathNotFoundError reports a log source path that is neither a file nor a directory.
type PathNotFoundError struct {
	Path string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("path not found: %s", e.Path)
}
