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
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// clusterScoped holds the built-in kinds that are not namespaced.
var clusterScoped = map[schema.GroupKind]struct{}{
	{Group: "", Kind: "Namespace"}:                                                  {},
	{Group: "", Kind: "Node"}:                                                       {},
	{Group: "", Kind: "PersistentVolume"}:                                           {},
	{Group: "", Kind: "ComponentStatus"}:                                            {},
	{Group: "apiextensions.k8s.io", Kind: "CustomResourceDefinition"}:               {},
	{Group: "apiregistration.k8s.io", Kind: "APIService"}:                           {},
	{Group: "admissionregistration.k8s.io", Kind: "MutatingWebhookConfiguration"}:   {},
	{Group: "admissionregistration.k8s.io", Kind: "ValidatingWebhookConfiguration"}: {},
	{Group: "rbac.authorization.k8s.io", Kind: "ClusterRole"}:                       {},
	{Group: "rbac.authorization.k8s.io", Kind: "ClusterRoleBinding"}:                {},
	{Group: "storage.k8s.io", Kind: "StorageClass"}:                                 {},
	{Group: "storage.k8s.io", Kind: "CSIDriver"}:                                    {},
	{Group: "storage.k8s.io", Kind: "CSINode"}:                                      {},
	{Group: "storage.k8s.io", Kind: "VolumeAttachment"}:                             {},
	{Group: "scheduling.k8s.io", Kind: "PriorityClass"}:                             {},
	{Group: "policy", Kind: "PodSecurityPolicy"}:                                    {},
	{Group: "node.k8s.io", Kind: "RuntimeClass"}:                                    {},
	{Group: "networking.k8s.io", Kind: "IngressClass"}:                              {},
	{Group: "certificates.k8s.io", Kind: "CertificateSigningRequest"}:               {},
	{Group: "flowcontrol.apiserver.k8s.io", Kind: "FlowSchema"}:                     {},
	{Group: "flowcontrol.apiserver.k8s.io", Kind: "PriorityLevelConfiguration"}:     {},
}

// IsClusterScoped returns true if the group kind is a built-in cluster-scoped kind.
func IsClusterScoped(gk schema.GroupKind) bool {
	_, ok := clusterScoped[gk]
	return ok
}
