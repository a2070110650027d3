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

package objectutil

import (
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/cli-utils/pkg/object"
)

const fmtSeparator = "/"

// FmtObjMetadata returns the object ID in the format <kind>/<namespace>/<name>.
func FmtObjMetadata(obj object.ObjMetadata) string {
	var builder strings.Builder
	builder.WriteString(obj.GroupKind.Kind + fmtSeparator)
	if obj.Namespace != "" {
		builder.WriteString(obj.Namespace + fmtSeparator)
	}
	builder.WriteString(obj.Name)
	return builder.String()
}

// FmtUnstructured returns the object ID in the format <kind>/<namespace>/<name>.
func FmtUnstructured(obj *unstructured.Unstructured) string {
	return FmtObjMetadata(object.UnstructuredToObjMetadata(obj))
}

// FmtUnstructuredList returns the object IDs joined by a comma.
func FmtUnstructuredList(objects []*unstructured.Unstructured) string {
	ids := make([]string, 0, len(objects))
	for _, obj := range objects {
		ids = append(ids, FmtUnstructured(obj))
	}
	return strings.Join(ids, ", ")
}

// MaskSecret returns a copy of the object with the data and stringData values
// replaced by the given mask. Objects of other kinds are returned as they are.
func MaskSecret(obj *unstructured.Unstructured, mask string) (*unstructured.Unstructured, error) {
	if obj.GetKind() != "Secret" || obj.GroupVersionKind().Group != "" {
		return obj, nil
	}

	masked := obj.DeepCopy()
	for _, field := range []string{"data", "stringData"} {
		data, found, err := unstructured.NestedMap(masked.Object, field)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		for k := range data {
			data[k] = mask
		}
		if err := unstructured.SetNestedMap(masked.Object, data, field); err != nil {
			return nil, err
		}
	}

	return masked, nil
}
