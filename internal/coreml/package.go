package coreml

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Package layout constants.
const (
	ManifestName = "Manifest.json"
	DataDir      = "Data"
)

// Manifest is the Manifest.json of an .mlpackage.
type Manifest struct {
	FileFormatVersion   string                  `json:"fileFormatVersion"`
	ItemInfoEntries     map[string]ManifestItem `json:"itemInfoEntries"`
	RootModelIdentifier string                  `json:"rootModelIdentifier"`
}

// ManifestItem describes one file or directory stored in the package.
type ManifestItem struct {
	Author      string `json:"author"`
	Description string `json:"description"`
	Name        string `json:"name"`
	Path        string `json:"path"` // Relative to <package>/Data
}

// Item is a manifest entry resolved against the filesystem.
type Item struct {
	ID string
	ManifestItem
	Root    bool  // The root model spec
	Size    int64 // Bytes on disk (recursive for directories)
	Missing bool  // Listed in the manifest but absent on disk
}

// Package is an opened .mlpackage.
type Package struct {
	Path     string
	Manifest Manifest
	Items    []Item // Sorted by path
	SpecPath string // Absolute path of the root model spec
	Model    *Model
}

// IsPackage reports whether dir looks like an .mlpackage (has a Manifest.json).
func IsPackage(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ManifestName))
	return err == nil && !info.IsDir()
}

// ReadManifest reads and validates <dir>/Manifest.json.
//
//nolint:gosec // G304: Package path is provided by user.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, dir)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if m.RootModelIdentifier == "" {
		return nil, fmt.Errorf("%w: rootModelIdentifier is empty", ErrInvalidManifest)
	}
	return &m, nil
}

// OpenPackage opens an .mlpackage directory, resolves every manifest item
// and parses the root model spec.
func OpenPackage(dir string) (*Package, error) {
	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}

	root, ok := manifest.ItemInfoEntries[manifest.RootModelIdentifier]
	if !ok {
		return nil, fmt.Errorf("%w: no item %q in manifest", ErrRootModelNotFound, manifest.RootModelIdentifier)
	}

	pkg := &Package{
		Path:     dir,
		Manifest: *manifest,
		SpecPath: filepath.Join(dir, DataDir, filepath.FromSlash(root.Path)),
	}

	for id, entry := range manifest.ItemInfoEntries {
		item := Item{ID: id, ManifestItem: entry, Root: id == manifest.RootModelIdentifier}
		size, err := DiskUsage(filepath.Join(dir, DataDir, filepath.FromSlash(entry.Path)))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			item.Missing = true
		case err != nil:
			return nil, fmt.Errorf("stat item %s: %w", entry.Path, err)
		default:
			item.Size = size
		}
		pkg.Items = append(pkg.Items, item)
	}
	sort.Slice(pkg.Items, func(i, j int) bool { return pkg.Items[i].Path < pkg.Items[j].Path })

	for _, item := range pkg.Items {
		if item.Root && item.Missing {
			return nil, fmt.Errorf("%w: %s", ErrRootModelNotFound, pkg.SpecPath)
		}
	}

	pkg.Model, err = ParseFile(pkg.SpecPath)
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

// Size returns the total bytes of all present items.
func (p *Package) Size() int64 {
	var total int64
	for _, item := range p.Items {
		total += item.Size
	}
	return total
}

// DiskUsage returns the size of a file, or the summed size of a directory tree.
func DiskUsage(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}

	var total int64
	err = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		return nil
	})
	return total, err
}
