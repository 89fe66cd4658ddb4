// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"path/filepath"

	"gopkg.microglot.org/atf.go/internal/fs"
	"gopkg.microglot.org/atf.go/internal/idl"
)

// NewDefaultFS searches the ATF_PATH roots, followed by the platform data
// directories. Relative roots are resolved against the working directory.
func NewDefaultFS(lookup func(string) (string, bool)) (idl.FileSystem, error) {
	roots := getDefaultRoots(lookup)
	if atfPath, ok := lookup("ATF_PATH"); ok && atfPath != "" {
		roots = append(filepath.SplitList(atfPath), roots...)
	}
	return NewRootsFS(roots)
}

// NewRootsFS layers a local file system over each root in order.
func NewRootsFS(roots []string, opts ...fs.FileSystemLocalOption) (idl.FileSystem, error) {
	f := make(fs.FileSystemMulti, 0, len(roots))
	for _, root := range roots {
		absRoot, errAbs := filepath.Abs(root)
		if errAbs != nil {
			return nil, errAbs
		}
		rf, err := fs.NewFileSystemLocal(absRoot, opts...)
		if err != nil {
			return nil, err
		}
		f = append(f, rf)
	}
	return f, nil
}
