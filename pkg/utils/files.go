package utils

import (
	"fmt"
	"path/filepath"
	"strings"
)

// InputKind tells the CLI how to turn an input file into bytecode.
type InputKind int

const (
	// KindSource is VSL source, compiled by pkg/compiler.
	KindSource InputKind = iota
	// KindListing is a bytecode listing, assembled by pkg/asm.
	KindListing
)

// ListingExt marks listing files. Anything else is compiled as source.
const ListingExt = ".vasm"

func (k InputKind) String() string {
	if k == KindListing {
		return "listing"
	}
	return "source"
}

// GetPathInfo resolves relPath to an absolute path and returns it with its
// parent directory.
func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// resolves ../ and cleans the path
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}
	return fullPath, filepath.Dir(fullPath), nil
}

// InputInfo is an input path resolved for the CLI.
type InputInfo struct {
	FullPath  string
	ParentDir string
	Kind      InputKind
}

// ResolveInput classifies relPath by extension and resolves it.
func ResolveInput(relPath string) (InputInfo, error) {
	if relPath == "" {
		return InputInfo{}, fmt.Errorf("no input file given")
	}
	full, dir, err := GetPathInfo(relPath)
	if err != nil {
		return InputInfo{}, fmt.Errorf("resolve %q: %w", relPath, err)
	}
	kind := KindSource
	if strings.EqualFold(filepath.Ext(full), ListingExt) {
		kind = KindListing
	}
	return InputInfo{FullPath: full, ParentDir: dir, Kind: kind}, nil
}
