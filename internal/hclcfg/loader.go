// Package hclcfg loads workflow definitions from HCL files into the
// format-agnostic config model.
package hclcfg

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/ctxlog"
)

// Loader is the HCL implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL workflow loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Extensions implements config.Loader.
func (l *Loader) Extensions() []string {
	return []string{".hcl"}
}

// Load parses and translates the given workflow files.
func (l *Loader) Load(ctx context.Context, files ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	parser := hclparse.NewParser()
	model := &config.Model{}

	for _, path := range files {
		hclFile, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
		}

		var file File
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &file); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode workflow file %s: %w", path, diags)
		}

		for _, wf := range file.Workflows {
			translated, err := l.translateWorkflow(wf, path)
			if err != nil {
				return nil, fmt.Errorf("workflow %q in %s: %w", wf.Name, path, err)
			}
			model.Workflows = append(model.Workflows, translated)
		}
		logger.Debug("Loaded workflow definitions from HCL file.", "file", path, "workflows", len(file.Workflows))
	}

	return model, nil
}
