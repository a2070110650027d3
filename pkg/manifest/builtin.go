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
	"fmt"
	"sort"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"
	corev1 "k8s.io/api/core/v1"
	apiequality "k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	apiruntime "k8s.io/apimachinery/pkg/runtime"

	"github.com/stefanprodan/manifestor/pkg/config"
)

// CreateNamespace returns an addition that generates the given namespace,
// or the manifest set default namespace if empty.
func CreateNamespace(namespace string) Addition {
	return AdditionFunc("create-namespace", func(ctx Context) ([]*unstructured.Unstructured, error) {
		ns := namespace
		if ns == "" {
			ns = ctx.Namespace
		}
		if ns == "" {
			return nil, nil
		}

		obj := &unstructured.Unstructured{}
		obj.SetAPIVersion("v1")
		obj.SetKind("Namespace")
		obj.SetName(ns)
		return []*unstructured.Unstructured{obj}, nil
	})
}

// AddObjects returns an addition that generates copies of the given objects.
func AddObjects(name string, objects ...*unstructured.Unstructured) Addition {
	return AdditionFunc(name, func(_ Context) ([]*unstructured.Unstructured, error) {
		result := make([]*unstructured.Unstructured, 0, len(objects))
		for _, obj := range objects {
			result = append(result, obj.DeepCopy())
		}
		return result, nil
	})
}

// SubtractEq returns a subtraction that removes the objects
// with the same kind, namespace and name as the given ones.
// Namespaced objects without a namespace match the manifest set namespace.
func SubtractEq(name string, objects ...*unstructured.Unstructured) Subtraction {
	return SubtractionFunc(name, func(ctx Context, _ *Set) ([]Key, error) {
		keys := make([]Key, 0, len(objects))
		for _, obj := range objects {
			target := obj.DeepCopy()
			if err := ctx.SetDefaultNamespace(target); err != nil {
				return nil, err
			}
			keys = append(keys, KeyOf(target))
		}
		return keys, nil
	})
}

// podSpecPaths maps the container-bearing kinds to their pod spec.
var podSpecPaths = map[string][]string{
	"Pod":                   {"spec"},
	"DaemonSet":             {"spec", "template", "spec"},
	"Deployment":            {"spec", "template", "spec"},
	"Job":                   {"spec", "template", "spec"},
	"ReplicaSet":            {"spec", "template", "spec"},
	"ReplicationController": {"spec", "template", "spec"},
	"StatefulSet":           {"spec", "template", "spec"},
	"CronJob":               {"spec", "jobTemplate", "spec", "template", "spec"},
}

// ConfigRegistry returns a patch that replaces the registry of the container and init container
// images with the 'image-registry' config value. The patch is a no-op when the value is empty.
func ConfigRegistry() Patch {
	kinds := make([]string, 0, len(podSpecPaths))
	for kind := range podSpecPaths {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	return PatchFunc("config-registry", kinds, func(ctx Context, obj *unstructured.Unstructured) error {
		values, err := ctx.Config()
		if err != nil {
			return err
		}
		registry := strings.TrimSuffix(values.String(config.ImageRegistryKey), "/")
		if registry == "" {
			return nil
		}
		if _, err := name.NewRegistry(registry); err != nil {
			return fmt.Errorf("invalid %s '%s': %w", config.ImageRegistryKey, registry, err)
		}

		specPath, ok := podSpecPaths[obj.GetKind()]
		if !ok {
			return nil
		}

		for _, field := range []string{"initContainers", "containers"} {
			path := append(append([]string{}, specPath...), field)
			containers, found, err := unstructured.NestedSlice(obj.Object, path...)
			if err != nil {
				return fmt.Errorf("%s of %s/%s are invalid, error: %w", field, obj.GetKind(), obj.GetName(), err)
			}
			if !found {
				continue
			}
			for i, item := range containers {
				container, ok := item.(map[string]interface{})
				if !ok {
					continue
				}
				image, ok := container["image"].(string)
				if !ok || image == "" {
					continue
				}
				rewritten, err := ReplaceRegistry(image, registry)
				if err != nil {
					return err
				}
				container["image"] = rewritten
				containers[i] = container
			}
			if err := unstructured.SetNestedSlice(obj.Object, containers, path...); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceRegistry swaps the registry host of the image reference, keeping the
// repository path and the tag or digest. References without a registry host
// are prefixed with the new registry.
func ReplaceRegistry(image, registry string) (string, error) {
	if _, err := name.ParseReference(image); err != nil {
		return "", fmt.Errorf("invalid image '%s': %w", image, err)
	}

	repository := image
	if parts := strings.SplitN(image, "/", 2); len(parts) == 2 && isRegistryHost(parts[0]) {
		repository = parts[1]
	}

	result := registry + "/" + repository
	if _, err := name.ParseReference(result); err != nil {
		return "", fmt.Errorf("invalid image '%s': %w", result, err)
	}
	return result, nil
}

// isRegistryHost applies the docker rule: the first path component is a registry
// host if it contains a dot or a port, or if it's localhost.
func isRegistryHost(component string) bool {
	return strings.ContainsAny(component, ".:") || component == "localhost"
}

// TolerationsAdjuster returns the tolerations of an object's pod spec.
type TolerationsAdjuster func(ctx Context, obj *unstructured.Unstructured, tolerations []corev1.Toleration) ([]corev1.Toleration, error)

// UpdateTolerations returns a patch that sets the pod spec tolerations of Pods, DaemonSets,
// Deployments and StatefulSets to the result of the adjuster, without duplicates.
func UpdateTolerations(adjuster TolerationsAdjuster) Patch {
	kinds := []string{"Pod", "DaemonSet", "Deployment", "StatefulSet"}

	return PatchFunc("update-tolerations", kinds, func(ctx Context, obj *unstructured.Unstructured) error {
		path := append(append([]string{}, podSpecPaths[obj.GetKind()]...), "tolerations")

		items, _, err := unstructured.NestedSlice(obj.Object, path...)
		if err != nil {
			return err
		}

		current := make([]corev1.Toleration, 0, len(items))
		for _, item := range items {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			var t corev1.Toleration
			if err := apiruntime.DefaultUnstructuredConverter.FromUnstructured(m, &t); err != nil {
				return fmt.Errorf("toleration conversion failed, error: %w", err)
			}
			current = append(current, t)
		}

		adjusted, err := adjuster(ctx, obj, current)
		if err != nil {
			return err
		}

		var unique []corev1.Toleration
		for _, t := range adjusted {
			duplicate := false
			for _, u := range unique {
				if apiequality.Semantic.DeepEqual(t, u) {
					duplicate = true
					break
				}
			}
			if !duplicate {
				unique = append(unique, t)
			}
		}

		if len(unique) == 0 {
			unstructured.RemoveNestedField(obj.Object, path...)
			return nil
		}

		result := make([]interface{}, 0, len(unique))
		for i := range unique {
			m, err := apiruntime.DefaultUnstructuredConverter.ToUnstructured(&unique[i])
			if err != nil {
				return fmt.Errorf("toleration conversion failed, error: %w", err)
			}
			result = append(result, m)
		}
		return unstructured.SetNestedSlice(obj.Object, result, path...)
	})
}
