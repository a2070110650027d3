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

package main

import (
	"fmt"

	"github.com/fluxcd/pkg/ssa"
	"sigs.k8s.io/kustomize/kyaml/filesys"

	"github.com/stefanprodan/manifestor/pkg/cluster"
	"github.com/stefanprodan/manifestor/pkg/collector"
	"github.com/stefanprodan/manifestor/pkg/config"
	"github.com/stefanprodan/manifestor/pkg/manifest"
	"github.com/stefanprodan/manifestor/pkg/release"
)

// selectManifestSets returns the config of the named manifest sets,
// or all of them if no name is given.
func selectManifestSets(names []string) ([]config.ManifestSetSpec, error) {
	if len(cfg.ManifestSets) == 0 {
		return nil, fmt.Errorf("no manifest sets found in config")
	}
	if len(names) == 0 {
		return cfg.ManifestSets, nil
	}

	specs := make([]config.ManifestSetSpec, 0, len(names))
	for _, name := range names {
		spec, ok := cfg.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("manifest set '%s' not found in config", name)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func newManifestSet(fs filesys.FileSystem, spec config.ManifestSetSpec, kubeClient *cluster.Client) (*manifest.ManifestSet, error) {
	var manipulations []manifest.Manipulation
	if spec.CreateNamespace {
		manipulations = append(manipulations, manifest.CreateNamespace(spec.Namespace))
	}
	manipulations = append(manipulations, manifest.ConfigRegistry())

	opts := manifest.Options{
		Name:          spec.Name,
		Application:   cfg.Application,
		Namespace:     spec.Namespace,
		Catalog:       release.NewCatalog(fs, spec.Path),
		Source:        config.SourceFor(fs, spec),
		Manipulations: manipulations,
		FieldManager:  cfg.FieldManager.Name,
		LabelGroup:    cfg.FieldManager.Group,
		Logger:        newLogr(),
	}
	if kubeClient != nil {
		opts.Client = kubeClient
	}

	return manifest.New(opts)
}

// newCollector builds the named manifest sets from the config.
// The cluster client is initialised only when withCluster is true.
func newCollector(names []string, withCluster bool) (*collector.Collector, *cluster.Client, error) {
	specs, err := selectManifestSets(names)
	if err != nil {
		return nil, nil, err
	}

	var kubeClient *cluster.Client
	if withCluster {
		owner := ssa.Owner{
			Field: cfg.FieldManager.Name,
			Group: cfg.FieldManager.Group,
		}
		if owner.Field == "" {
			owner.Field = PROJECT
		}
		kubeClient, err = cluster.NewForConfig(kubeconfigArgs, owner)
		if err != nil {
			return nil, nil, fmt.Errorf("client init failed: %w", err)
		}
	}

	fs := filesys.MakeFsOnDisk()
	sets := make([]*manifest.ManifestSet, 0, len(specs))
	for _, spec := range specs {
		m, err := newManifestSet(fs, spec, kubeClient)
		if err != nil {
			return nil, nil, err
		}
		sets = append(sets, m)
	}

	return collector.New(newLogr(), sets...), kubeClient, nil
}

func printChangeSet(name string, changeSet *manifest.ChangeSet) {
	if changeSet == nil {
		return
	}
	for _, change := range changeSet.Entries {
		logger.Println(fmt.Sprintf("%s: %s", name, change.String()))
	}
}
