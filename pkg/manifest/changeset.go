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

import "fmt"

// Action represents the action type performed on an object.
type Action string

const (
	AppliedAction Action = "applied"
	DeletedAction Action = "deleted"
	SkippedAction Action = "skipped"
)

// ChangeSet holds the result of the reconciliation of an object collection.
type ChangeSet struct {
	Entries []ChangeSetEntry
}

func NewChangeSet() *ChangeSet {
	return &ChangeSet{Entries: []ChangeSetEntry{}}
}

func (c *ChangeSet) Add(e ChangeSetEntry) {
	c.Entries = append(c.Entries, e)
}

func (c *ChangeSet) Append(e []ChangeSetEntry) {
	c.Entries = append(c.Entries, e...)
}

// ChangeSetEntry defines the result of an action performed on an object.
type ChangeSetEntry struct {
	// Subject represents the object ID in the format 'kind/namespace/name'.
	Subject string
	// Action represents the action type taken for this object.
	Action string
	// Reason explains why the object was skipped.
	Reason string
}

func (e ChangeSetEntry) String() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s %s (%s)", e.Subject, e.Action, e.Reason)
	}
	return fmt.Sprintf("%s %s", e.Subject, e.Action)
}
