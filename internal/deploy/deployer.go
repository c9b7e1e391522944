// Package deploy ships the finished artifact to its target: staging
// for web preview, flashing to an ESP32 board, or both.
package deploy

import (
	"context"
	"fmt"

	"github.com/zoidbergclawd/elisa-sub008/internal/exec"
	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// Result describes the outcome of a deployment step.
type Result struct {
	// Target is the destination this result covers.
	Target models.DeployTarget `json:"target"`
	// Success is true when the artifact reached the target.
	Success bool `json:"success"`
	// Message is a kid-readable status line.
	Message string `json:"message"`
	// Files is the number of files staged or flashed.
	Files int `json:"files"`
}

// Deployer ships a project directory to one deployment target.
type Deployer interface {
	// Deploy ships the project at projectPath. A non-nil error means the
	// deployment machinery itself broke; an unsuccessful Result means the
	// target rejected the artifact (compile errors, no board, ...).
	Deploy(ctx context.Context, projectPath string) (*Result, error)
}

// ForTarget builds the deployer for a target. Preview needs no
// deployment, so it returns nil. Port is the serial port for hardware
// targets; empty means auto-detect.
func ForTarget(target models.DeployTarget, runner exec.CommandRunner, port string) (Deployer, error) {
	switch target {
	case models.DeployPreview:
		return nil, nil
	case models.DeployWeb:
		return NewWebDeployer(), nil
	case models.DeployESP32:
		return NewESP32Deployer(runner, port), nil
	case models.DeployBoth:
		return NewComposite(NewWebDeployer(), NewESP32Deployer(runner, port)), nil
	default:
		return nil, fmt.Errorf("unknown deployment target %q", target)
	}
}

// Composite runs several deployers in order and merges their results.
// The first unsuccessful step stops the chain.
type Composite struct {
	steps []Deployer
}

// NewComposite creates a deployer that runs steps in order.
func NewComposite(steps ...Deployer) *Composite {
	return &Composite{steps: steps}
}

// Deploy implements Deployer.
func (c *Composite) Deploy(ctx context.Context, projectPath string) (*Result, error) {
	combined := &Result{Target: models.DeployBoth, Success: true}
	for _, step := range c.steps {
		res, err := step.Deploy(ctx, projectPath)
		if err != nil {
			return nil, err
		}
		combined.Files += res.Files
		if combined.Message != "" {
			combined.Message += " "
		}
		combined.Message += res.Message
		if !res.Success {
			combined.Success = false
			return combined, nil
		}
	}
	return combined, nil
}
