package scanner

import (
	"errors"
	"fmt"
)

// ErrNotDirectory indicates a scan root that exists but is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// InvalidRootError reports a scan root that is missing or is not a directory.
// It is returned before any traversal starts.
type InvalidRootError struct {
	Path string
	Err  error
}

func (rootError *InvalidRootError) Error() string {
	return fmt.Sprintf("invalid scan root %s: %v", rootError.Path, rootError.Err)
}

func (rootError *InvalidRootError) Unwrap() error {
	return rootError.Err
}

// DirectoryListError reports a directory whose entries could not be listed.
// The directory's subtree is skipped and the scan continues.
type DirectoryListError struct {
	Path string
	Err  error
}

func (listError *DirectoryListError) Error() string {
	return fmt.Sprintf("reading directory %s: %v", listError.Path, listError.Err)
}

func (listError *DirectoryListError) Unwrap() error {
	return listError.Err
}
