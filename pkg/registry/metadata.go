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
	"fmt"
	"time"
)

const (
	ReleaseAnnotation    = "manifestor.dev/release"
	ManifestAnnotation   = "manifestor.dev/manifest"
	ChecksumAnnotation   = "manifestor.dev/checksum"
	CreatedAnnotation    = "manifestor.dev/created"
	EncryptedAnnotation  = "manifestor.dev/encrypted"
	AgeEncryptionVersion = "age-encryption.org/v1"
)

// Metadata describes a release artifact, it's stored in the OCI manifest annotations.
type Metadata struct {
	// Manifest is the name of the manifest set.
	Manifest string `json:"manifest,omitempty"`
	// Release is the name of the release directory.
	Release string `json:"release"`
	// Checksum is the SHA256 of the release tarball before encryption.
	Checksum string `json:"checksum"`
	// Created is the RFC3339 push timestamp.
	Created string `json:"created"`
	// Encrypted holds the encryption format, empty for plain artifacts.
	Encrypted string `json:"encrypted,omitempty"`
	// Digest is set on pull to the artifact digest URL.
	Digest string `json:"digest,omitempty"`
}

// NewMetadata returns the metadata of a release pushed now.
func NewMetadata(manifest, release string) *Metadata {
	return &Metadata{
		Manifest: manifest,
		Release:  release,
		Created:  time.Now().UTC().Format(time.RFC3339),
	}
}

func (m *Metadata) ToAnnotations() map[string]string {
	annotations := map[string]string{
		ReleaseAnnotation:  m.Release,
		ChecksumAnnotation: m.Checksum,
		CreatedAnnotation:  m.Created,
	}
	if m.Manifest != "" {
		annotations[ManifestAnnotation] = m.Manifest
	}
	if m.Encrypted != "" {
		annotations[EncryptedAnnotation] = m.Encrypted
	}
	return annotations
}

// GetMetadata reads the metadata from the OCI manifest annotations.
func GetMetadata(annotations map[string]string) (*Metadata, error) {
	m := &Metadata{
		Manifest:  annotations[ManifestAnnotation],
		Encrypted: annotations[EncryptedAnnotation],
	}

	for key, field := range map[string]*string{
		ReleaseAnnotation:  &m.Release,
		ChecksumAnnotation: &m.Checksum,
		CreatedAnnotation:  &m.Created,
	} {
		value, ok := annotations[key]
		if !ok {
			return nil, fmt.Errorf("'%s' annotation not found", key)
		}
		*field = value
	}

	return m, nil
}
