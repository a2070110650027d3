/*
Copyright 2021 Stefan Prodan

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package release

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"sigs.k8s.io/kustomize/kyaml/filesys"
)

const (
	// ManifestsDir is the directory under the base path that holds one directory per release.
	ManifestsDir = "manifests"

	// VersionFile is the file under the base path that holds the default release.
	VersionFile = "version"
)

var (
	// ErrReleaseNotFound is returned when the requested release is not in the catalog.
	ErrReleaseNotFound = errors.New("release not found")

	// ErrNoAvailableRelease is returned when the catalog contains no releases.
	ErrNoAvailableRelease = errors.New("no available release")
)

// Catalog lists the releases stored in a directory tree with the layout:
//
//	<base>
//	├── version              - the default release
//	└── manifests
//	    ├── v1.1.10          - one directory per release
//	    │   ├── a.yaml       - any file with a .yaml or .yml extension
//	    │   └── b.yml
//	    └── v1.1.11
//	        └── a.yaml
//
// The catalog never writes to the tree and holds no state besides its location,
// every query reflects the current content of the file system.
type Catalog struct {
	fs   filesys.FileSystem
	base string
}

// NewCatalog returns a Catalog for the given base path.
func NewCatalog(fs filesys.FileSystem, basePath string) *Catalog {
	return &Catalog{fs: fs, base: basePath}
}

// BasePath returns the root of the catalog.
func (c *Catalog) BasePath() string {
	return c.base
}

// ManifestsPath returns the directory that contains the releases.
func (c *Catalog) ManifestsPath() string {
	return path.Join(c.base, ManifestsDir)
}

// ReleasePath returns the directory of the given release.
func (c *Catalog) ReleasePath(release string) string {
	return path.Join(c.ManifestsPath(), release)
}

// Releases returns all the releases that contain at least one manifest file,
// ordered from the highest to the lowest release.
func (c *Catalog) Releases() ([]string, error) {
	root := c.ManifestsPath()
	if !c.fs.IsDir(root) {
		return []string{}, nil
	}

	entries, err := c.fs.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading %s failed, error: %w", root, err)
	}

	releases := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !c.fs.IsDir(path.Join(root, entry)) {
			continue
		}
		files, err := c.ManifestFiles(entry)
		if err != nil {
			return nil, err
		}
		if len(files) > 0 {
			releases = append(releases, entry)
		}
	}

	sort.Sort(sort.Reverse(ByVersion(releases)))
	return releases, nil
}

// Has returns true if the release exists in the catalog.
func (c *Catalog) Has(release string) (bool, error) {
	releases, err := c.Releases()
	if err != nil {
		return false, err
	}
	for _, r := range releases {
		if r == release {
			return true, nil
		}
	}
	return false, nil
}

// DefaultRelease returns the release recorded in the version file,
// or an empty string if the file does not exist.
func (c *Catalog) DefaultRelease() (string, error) {
	versionPath := path.Join(c.base, VersionFile)
	if !c.fs.Exists(versionPath) || c.fs.IsDir(versionPath) {
		return "", nil
	}

	data, err := c.fs.ReadFile(versionPath)
	if err != nil {
		return "", fmt.Errorf("reading %s failed, error: %w", versionPath, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// LatestRelease returns the highest release in the catalog.
func (c *Catalog) LatestRelease() (string, error) {
	releases, err := c.Releases()
	if err != nil {
		return "", err
	}
	if len(releases) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoAvailableRelease, c.ManifestsPath())
	}
	return releases[0], nil
}

// Resolve determines the active release.
// A configured release must match a release directory exactly.
// Without one, the default release is used if it exists in the catalog,
// otherwise the highest release is selected.
func (c *Catalog) Resolve(configured string) (string, error) {
	releases, err := c.Releases()
	if err != nil {
		return "", err
	}
	if len(releases) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoAvailableRelease, c.ManifestsPath())
	}

	if configured != "" {
		if !contains(releases, configured) {
			return "", fmt.Errorf("%w: '%s' is not one of [%s]",
				ErrReleaseNotFound, configured, strings.Join(releases, ", "))
		}
		return configured, nil
	}

	def, err := c.DefaultRelease()
	if err != nil {
		return "", err
	}
	if def != "" && contains(releases, def) {
		return def, nil
	}

	return releases[0], nil
}

// ManifestFiles returns the paths of the manifest files in the release directory,
// in directory listing order.
func (c *Catalog) ManifestFiles(release string) ([]string, error) {
	dir := c.ReleasePath(release)
	if !c.fs.IsDir(dir) {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrReleaseNotFound, dir)
	}

	entries, err := c.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s failed, error: %w", dir, err)
	}
	sort.Strings(entries)

	var files []string
	for _, entry := range entries {
		p := path.Join(dir, entry)
		if c.fs.IsDir(p) || !MatchExt(entry) {
			continue
		}
		files = append(files, p)
	}
	return files, nil
}

// ReadFile returns the content of a file from the catalog.
func (c *Catalog) ReadFile(file string) ([]byte, error) {
	data, err := c.fs.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s failed, error: %w", file, err)
	}
	return data, nil
}

// MatchExt returns true if the file name has a manifest extension.
func MatchExt(f string) bool {
	ext := path.Ext(f)
	return ext == ".yaml" || ext == ".yml"
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
