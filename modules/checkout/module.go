// Package checkout provides the action that clones a git repository into
// the run's working directory, optionally with submodules and at a
// specific ref.
package checkout

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/vk/forgeci/internal/ctxlog"
	"github.com/vk/forgeci/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the checkout action.
type Input struct {
	Repository string `ci:"repository"`
	Ref        string `ci:"ref"`
	Dest       string `ci:"dest"`
	Depth      int    `ci:"depth"`
	Submodules bool   `ci:"submodules"`
}

// Run clones or updates the repository. An existing clone at the
// destination is fetched instead of re-cloned so repeated runs on a
// persistent runner stay fast.
func Run(ctx context.Context, ec *registry.ExecContext, input *Input) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx)

	dest := input.Dest
	if dest == "" {
		dest = strings.TrimSuffix(path.Base(input.Repository), ".git")
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(ec.WorkDir, dest)
	}

	if _, err := os.Stat(filepath.Join(dest, ".git")); err == nil {
		logger.Debug("Existing clone found, fetching.", "dest", dest)
		if err := runGit(ctx, ec, dest, "fetch", "--all", "--tags"); err != nil {
			return nil, err
		}
	} else {
		args := []string{"clone"}
		if input.Depth > 0 {
			args = append(args, "--depth", strconv.Itoa(input.Depth))
		}
		if input.Submodules {
			args = append(args, "--recurse-submodules")
		}
		args = append(args, input.Repository, dest)
		logger.Debug("Cloning repository.", "repository", input.Repository, "dest", dest)
		if err := runGit(ctx, ec, ec.WorkDir, args...); err != nil {
			return nil, err
		}
	}

	if input.Ref != "" {
		if err := runGit(ctx, ec, dest, "checkout", input.Ref); err != nil {
			return nil, err
		}
		if input.Submodules {
			if err := runGit(ctx, ec, dest, "submodule", "update", "--init", "--recursive"); err != nil {
				return nil, err
			}
		}
	}

	return map[string]any{"path": dest}, nil
}

func runGit(ctx context.Context, ec *registry.ExecContext, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = ec.Env
	cmd.Stdout = ec.Stdout
	cmd.Stderr = ec.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %s failed: %w", args[0], err)
	}
	return nil
}

// Register registers the action with the engine.
func (m *Module) Register(r *registry.Registry) {
	emptyString := cty.StringVal("")
	zero := cty.NumberIntVal(0)
	falseVal := cty.False
	r.RegisterAction(&registry.ActionDefinition{
		Type:        "checkout",
		Description: "Clones a git repository into the working directory.",
		Inputs: map[string]*registry.InputDefinition{
			"repository": {Name: "repository", Type: cty.String, Description: "The clone URL or path of the repository."},
			"ref":        {Name: "ref", Type: cty.String, Description: "The branch, tag or commit to check out.", Default: &emptyString, Optional: true},
			"dest":       {Name: "dest", Type: cty.String, Description: "The directory to clone into, relative to the working directory.", Default: &emptyString, Optional: true},
			"depth":      {Name: "depth", Type: cty.Number, Description: "Create a shallow clone with this history depth. Zero clones the full history.", Default: &zero, Optional: true},
			"submodules": {Name: "submodules", Type: cty.Bool, Description: "Also clone and update submodules recursively.", Default: &falseVal, Optional: true},
		},
	}, &registry.RegisteredAction{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        Run,
	})
}
