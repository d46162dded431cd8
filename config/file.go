// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"io/fs"
)

// YamlFile is a Source which parses a YAML file opened from a fs.FS.
type YamlFile struct {
	fs   fs.FS
	path string
}

// FromYamlFile returns a Source which will apply its config from
// the YAML file at path. The file is opened on Apply.
func FromYamlFile(fsys fs.FS, path string) YamlFile {
	return YamlFile{
		fs:   fsys,
		path: path,
	}
}

// OpenFileError occurs if the config file could not be opened.
type OpenFileError struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e OpenFileError) Error() string {
	return fmt.Sprintf("failed to open config file %s: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e OpenFileError) Unwrap() error {
	return e.Cause
}

// Apply implements the Source interface.
func (src YamlFile) Apply(store Store) error {
	f, err := src.fs.Open(src.path)
	if err != nil {
		return OpenFileError{Path: src.path, Cause: err}
	}
	return FromYaml(f).Apply(store)
}
