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

// Package manifest builds the desired state of a manifest set and reconciles it with a cluster.
//
// A ManifestSet performs the following actions:
// - resolves the current release from the live configuration and the release catalog
// - loads the objects of the release and defaults their namespace
// - runs the additions, subtractions and patches, in this order, to compute the desired objects
// - applies the desired objects with forced server-side apply, stamping the ownership labels
// - deletes the desired objects from the cluster
// - queries the objects installed by the current release or by any release
// - reports the status conditions and the readiness of the installed objects
package manifest
