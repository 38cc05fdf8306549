package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/overmind/internal/model"
)

// SceneExt is the file extension of saved workspaces.
const SceneExt = ".ovm"

// Workspace is the current and the target arrangement saved together.
type Workspace struct {
	Current model.SceneDoc `json:"current"`
	Target  model.SceneDoc `json:"target"`
}

// DefaultScenesDir returns the default directory for workspaces,
// ~/.overmind/scenes.
func DefaultScenesDir() string {
	return filepath.Join(DefaultConfigDir(), "scenes")
}

// SaveWorkspace writes both models to path as JSON.
func SaveWorkspace(path string, current, target *model.ScaffoldModel) error {
	ws := Workspace{Current: current.Doc(), Target: target.Doc()}
	data, err := json.MarshalIndent(ws, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workspace: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadWorkspace reads a workspace and rebuilds both models.
func LoadWorkspace(path string) (current, target *model.ScaffoldModel, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read workspace: %w", err)
	}
	var ws Workspace
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, nil, fmt.Errorf("failed to parse workspace %s: %w", path, err)
	}
	if current, err = model.FromDoc(ws.Current); err != nil {
		return nil, nil, fmt.Errorf("current model: %w", err)
	}
	if target, err = model.FromDoc(ws.Target); err != nil {
		return nil, nil, fmt.Errorf("target model: %w", err)
	}
	return current, target, nil
}

// ListWorkspaces returns the workspace files in dir, sorted by name.
// A missing directory yields no files.
func ListWorkspaces(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+SceneExt))
	if err != nil {
		return nil, err
	}
	return matches, nil
}
