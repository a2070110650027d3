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

package manifest

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResource is returned when a document can't be resolved to a kind, namespace and name.
	ErrMalformedResource = errors.New("malformed resource")

	// ErrPatchIdentity is returned when a patch changes the kind, namespace or name of an object.
	ErrPatchIdentity = errors.New("patch changed the object identity")
)

// ClientError wraps the failures of the cluster client.
type ClientError struct {
	// Op is the cluster operation, e.g. 'list', 'apply' or 'delete'.
	Op string
	// Subject is the object ID or the kind and namespace of a list.
	Subject string
	// Err is the error returned by the cluster client.
	Err error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("%s %s failed, error: %v", e.Subject, e.Op, e.Err)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

func newClientError(op, subject string, err error) error {
	return &ClientError{Op: op, Subject: subject, Err: err}
}
