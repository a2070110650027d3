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

package registry

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"path"

	"filippo.io/age"
	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/name"
	gcrv1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/empty"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	"github.com/google/go-containerregistry/pkg/v1/tarball"

	"github.com/stefanprodan/manifestor/pkg/release"
)

const (
	releaseFile          = "release.tar"
	encryptedReleaseFile = "release.tar.age"
)

// PushRelease packs the manifest files of a catalog release into an OCI artifact
// and uploads it to the container registry. If recipients are specified, the
// release tarball is encrypted with age. It returns the digest URL of the artifact.
func PushRelease(ctx context.Context, url string, catalog *release.Catalog, rel string, meta *Metadata, recipients []age.Recipient) (string, error) {
	ref, err := name.ParseReference(url)
	if err != nil {
		return "", fmt.Errorf("parsing reference failed: %w", err)
	}

	files, err := catalog.ManifestFiles(rel)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: release '%s' has no manifests", release.ErrReleaseNotFound, rel)
	}

	contents := make(map[string][]byte, len(files))
	for _, file := range files {
		data, err := catalog.ReadFile(file)
		if err != nil {
			return "", err
		}
		contents[path.Base(file)] = data
	}

	data, err := tarFiles(contents)
	if err != nil {
		return "", fmt.Errorf("packing release '%s' failed, error: %w", rel, err)
	}

	meta.Release = rel
	meta.Checksum = fmt.Sprintf("%x", sha256.Sum256(data))

	dataFile := releaseFile
	if len(recipients) > 0 {
		encData, err := encrypt(data, recipients)
		if err != nil {
			return "", fmt.Errorf("failed to encrypt data with age: %w", err)
		}
		meta.Encrypted = AgeEncryptionVersion
		dataFile = encryptedReleaseFile
		data = encData
	}

	layerData, err := tarFiles(map[string][]byte{dataFile: data})
	if err != nil {
		return "", err
	}

	layer, err := tarball.LayerFromOpener(func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(layerData)), nil
	})
	if err != nil {
		return "", fmt.Errorf("creating layer failed: %w", err)
	}

	img, err := mutate.AppendLayers(empty.Image, layer)
	if err != nil {
		return "", fmt.Errorf("appending content failed: %w", err)
	}
	img = mutate.Annotations(img, meta.ToAnnotations()).(gcrv1.Image)

	if err := crane.Push(img, url, craneOptions(ctx)...); err != nil {
		return "", fmt.Errorf("pushing image failed: %w", err)
	}

	digest, err := img.Digest()
	if err != nil {
		return "", fmt.Errorf("parsing digest failed: %w", err)
	}

	return ref.Context().Digest(digest.String()).String(), nil
}
