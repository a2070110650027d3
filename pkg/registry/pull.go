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
	"path"
	"strings"

	"filippo.io/age"
	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/name"
	"sigs.k8s.io/kustomize/kyaml/filesys"

	"github.com/stefanprodan/manifestor/pkg/release"
)

// PullRelease downloads a release artifact and writes its manifests to
// '<base>/manifests/<release>', replacing the content of an existing release
// directory. Encrypted artifacts require the age identities of one of the recipients.
func PullRelease(ctx context.Context, url string, fs filesys.FileSystem, basePath string, identities []age.Identity) (*Metadata, error) {
	ref, err := name.ParseReference(url)
	if err != nil {
		return nil, fmt.Errorf("parsing reference failed: %w", err)
	}

	img, err := crane.Pull(url, craneOptions(ctx)...)
	if err != nil {
		return nil, err
	}

	manifest, err := img.Manifest()
	if err != nil {
		return nil, err
	}

	digest, err := img.Digest()
	if err != nil {
		return nil, fmt.Errorf("parsing digest failed: %w", err)
	}

	meta, err := GetMetadata(manifest.Annotations)
	if err != nil {
		return nil, err
	}
	meta.Digest = ref.Context().Digest(digest.String()).String()

	if err := validateReleaseName(meta.Release); err != nil {
		return meta, err
	}

	if meta.Encrypted != "" && len(identities) < 1 {
		return meta, fmt.Errorf("encrypted artifact, you need to supply a private key for decryption")
	}

	layers, err := img.Layers()
	if err != nil {
		return nil, err
	}
	if len(layers) < 1 {
		return nil, fmt.Errorf("no layers found in image")
	}

	blob, err := layers[0].Uncompressed()
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	layerFiles, err := untarFiles(blob)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch meta.Encrypted {
	case "":
		data = layerFiles[releaseFile]
	case AgeEncryptionVersion:
		encData, ok := layerFiles[encryptedReleaseFile]
		if !ok {
			return meta, fmt.Errorf("'%s' not found in artifact", encryptedReleaseFile)
		}
		data, err = decrypt(encData, identities)
		if err != nil {
			return meta, fmt.Errorf("failed to decrypt content: %w", err)
		}
	default:
		return meta, fmt.Errorf("unsupported encryption '%s'", meta.Encrypted)
	}

	if data == nil {
		return meta, fmt.Errorf("'%s' not found in artifact", releaseFile)
	}

	if meta.Checksum != fmt.Sprintf("%x", sha256.Sum256(data)) {
		return meta, fmt.Errorf("checksum mismatch")
	}

	files, err := untarFiles(bytes.NewReader(data))
	if err != nil {
		return meta, fmt.Errorf("unpacking release '%s' failed, error: %w", meta.Release, err)
	}

	catalog := release.NewCatalog(fs, basePath)
	dir := catalog.ReleasePath(meta.Release)
	if fs.Exists(dir) {
		if err := fs.RemoveAll(dir); err != nil {
			return meta, fmt.Errorf("removing %s failed, error: %w", dir, err)
		}
	}
	if err := fs.MkdirAll(dir); err != nil {
		return meta, fmt.Errorf("creating %s failed, error: %w", dir, err)
	}

	for file, content := range files {
		if !release.MatchExt(file) {
			continue
		}
		if err := fs.WriteFile(path.Join(dir, file), content); err != nil {
			return meta, fmt.Errorf("writing %s failed, error: %w", file, err)
		}
	}

	return meta, nil
}

func validateReleaseName(rel string) error {
	if rel == "" || rel == "." || rel == ".." || strings.ContainsAny(rel, `/\`) {
		return fmt.Errorf("invalid release name '%s'", rel)
	}
	return nil
}
