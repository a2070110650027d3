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

package cluster

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxcd/pkg/ssa"
	corev1 "k8s.io/api/core/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	apiruntime "k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/client-go/rest"
	"sigs.k8s.io/cli-utils/pkg/kstatus/polling"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/apiutil"
)

// Client performs the cluster operations of the manifest sets
// with a controller-runtime client.
type Client struct {
	kubeClient client.Client
	poller     *polling.StatusPoller
	owner      ssa.Owner
}

// New returns a client for the given controller-runtime client and status poller.
// The poller is only required by Wait.
func New(kubeClient client.Client, poller *polling.StatusPoller, owner ssa.Owner) *Client {
	return &Client{
		kubeClient: kubeClient,
		poller:     poller,
		owner:      owner,
	}
}

// NewForConfig builds the controller-runtime client and the status poller from the kubeconfig flags.
func NewForConfig(rcg genericclioptions.RESTClientGetter, owner ssa.Owner) (*Client, error) {
	cfg, err := newKubeConfig(rcg)
	if err != nil {
		return nil, err
	}

	restMapper, err := apiutil.NewDynamicRESTMapper(cfg)
	if err != nil {
		return nil, fmt.Errorf("kubernetes client initialization failed: %w", err)
	}

	kubeClient, err := client.New(cfg, client.Options{
		Scheme: NewScheme(),
		Mapper: restMapper,
	})
	if err != nil {
		return nil, fmt.Errorf("kubernetes client initialization failed: %w", err)
	}

	poller := polling.NewStatusPoller(kubeClient, restMapper, polling.Options{})

	return New(kubeClient, poller, owner), nil
}

// NewScheme returns a scheme with the core and the CRD types registered.
func NewScheme() *apiruntime.Scheme {
	scheme := apiruntime.NewScheme()
	_ = apiextensionsv1.AddToScheme(scheme)
	_ = corev1.AddToScheme(scheme)
	return scheme
}

func newKubeConfig(rcg genericclioptions.RESTClientGetter) (*rest.Config, error) {
	cfg, err := rcg.ToRESTConfig()
	if err != nil {
		return nil, fmt.Errorf("kubeconfig load failed: %w", err)
	}

	cfg.QPS = 50
	cfg.Burst = 100

	return cfg, nil
}

// List returns the objects of the given kind matching all the labels,
// in the given namespace or in all namespaces if empty.
func (c *Client) List(ctx context.Context, gvk schema.GroupVersionKind, namespace string, labels map[string]string) ([]*unstructured.Unstructured, error) {
	list := &unstructured.UnstructuredList{}
	list.SetGroupVersionKind(schema.GroupVersionKind{
		Group:   gvk.Group,
		Version: gvk.Version,
		Kind:    gvk.Kind + "List",
	})

	opts := []client.ListOption{client.MatchingLabels(labels)}
	if namespace != "" {
		opts = append(opts, client.InNamespace(namespace))
	}

	if err := c.kubeClient.List(ctx, list, opts...); err != nil {
		return nil, err
	}

	result := make([]*unstructured.Unstructured, 0, len(list.Items))
	for i := range list.Items {
		obj := list.Items[i]
		if obj.GetKind() == "" {
			obj.SetGroupVersionKind(gvk)
		}
		result = append(result, &obj)
	}
	return result, nil
}

// Apply performs a server-side apply of the given object.
func (c *Client) Apply(ctx context.Context, obj *unstructured.Unstructured, fieldManager string, force bool) error {
	opts := []client.PatchOption{
		client.FieldOwner(fieldManager),
	}
	if force {
		opts = append(opts, client.ForceOwnership)
	}
	return c.kubeClient.Patch(ctx, obj, client.Apply, opts...)
}

// Delete removes the object with background propagation.
func (c *Client) Delete(ctx context.Context, obj *unstructured.Unstructured) error {
	return c.kubeClient.Delete(ctx, obj, client.PropagationPolicy(metav1.DeletePropagationBackground))
}

// Wait blocks until the objects are reconciled according to kstatus or until the timeout is reached.
func (c *Client) Wait(objects []*unstructured.Unstructured, interval, timeout time.Duration) error {
	if c.poller == nil {
		return fmt.Errorf("status poller not initialized")
	}
	resMgr := ssa.NewResourceManager(c.kubeClient, c.poller, c.owner)
	return resMgr.Wait(objects, ssa.WaitOptions{
		Interval: interval,
		Timeout:  timeout,
	})
}

// WaitForTermination blocks until the objects are removed from the cluster or until the timeout is reached.
func (c *Client) WaitForTermination(objects []*unstructured.Unstructured, interval, timeout time.Duration) error {
	if c.poller == nil {
		return fmt.Errorf("status poller not initialized")
	}
	resMgr := ssa.NewResourceManager(c.kubeClient, c.poller, c.owner)
	return resMgr.WaitForTermination(objects, ssa.WaitOptions{
		Interval: interval,
		Timeout:  timeout,
	})
}
