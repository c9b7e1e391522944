// Package workspace manages the project working directory: the .elisa
// control layout, the context-assembly helpers that feed agent prompts,
// and the file-based stop/pause signals.
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// ControlDir is the name of the control directory inside a project.
const ControlDir = ".elisa"

// Workspace is the project directory a build session works in. All agent
// output lands under Root; coordination files live under Root/.elisa.
type Workspace struct {
	root string
}

// New creates a Workspace rooted at the given directory. Call Init before
// using the control-layout paths.
func New(root string) *Workspace {
	return &Workspace{root: root}
}

// Root returns the project root directory.
func (w *Workspace) Root() string {
	return w.root
}

// ControlPath returns the path to the .elisa control directory.
func (w *Workspace) ControlPath() string {
	return filepath.Join(w.root, ControlDir)
}

// Init creates the project root and the .elisa control layout: comms/
// for per-task summary files, signals/ for stop/pause files, context/
// and status/ for the cumulative project context, and logs/.
func (w *Workspace) Init() error {
	dirs := []string{
		w.root,
		w.ControlPath(),
		filepath.Join(w.ControlPath(), "comms"),
		filepath.Join(w.ControlPath(), "signals"),
		filepath.Join(w.ControlPath(), "context"),
		filepath.Join(w.ControlPath(), "status"),
		filepath.Join(w.ControlPath(), "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create workspace directory: %w", err)
		}
	}

	// The notebook is the kid's own scratch file; create it once and
	// never touch it again.
	notebook := filepath.Join(w.ControlPath(), "notebook.md")
	if _, err := os.Stat(notebook); os.IsNotExist(err) {
		seed := "# Project Notebook\n\nWrite your ideas and notes here!\n"
		if err := os.WriteFile(notebook, []byte(seed), 0644); err != nil {
			return fmt.Errorf("create notebook: %w", err)
		}
	}
	return nil
}

// SignalsDir returns the directory watched for stop/pause signal files.
func (w *Workspace) SignalsDir() string {
	return filepath.Join(w.ControlPath(), "signals")
}

// LogPath returns the debug log path inside the control directory.
func (w *Workspace) LogPath() string {
	return filepath.Join(w.ControlPath(), "logs", "elisa-debug.log")
}

// StatePath returns the path of the session database.
func (w *Workspace) StatePath() string {
	return filepath.Join(w.ControlPath(), "state.db")
}

// CommsPath returns the summary file path for a task. Agents write a
// short summary here when they finish; the coordinator prefers it over
// the model's returned summary because agents may refine it.
func (w *Workspace) CommsPath(taskID string) string {
	return filepath.Join(w.ControlPath(), "comms", taskID+"_summary.md")
}

// ReadTaskSummary returns the comms-file summary for a task, or "" when
// the agent wrote none.
func (w *Workspace) ReadTaskSummary(taskID string) string {
	data, err := os.ReadFile(w.CommsPath(taskID))
	if err != nil {
		return ""
	}
	return string(data)
}

// WriteTaskSummary writes the comms file for a task.
func (w *Workspace) WriteTaskSummary(taskID, summary string) error {
	return os.WriteFile(w.CommsPath(taskID), []byte(summary), 0644)
}

// WriteProjectContext persists the cumulative project context markdown.
func (w *Workspace) WriteProjectContext(text string) error {
	path := filepath.Join(w.ControlPath(), "context", "project_context.md")
	return os.WriteFile(path, []byte(text), 0644)
}

// currentState is the JSON shape of the status snapshot file.
type currentState struct {
	Tasks  map[string]taskState  `json:"tasks"`
	Agents map[string]agentState `json:"agents"`
}

type taskState struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	AgentName string `json:"agent_name"`
}

type agentState struct {
	Role   string `json:"role"`
	Status string `json:"status"`
}

// WriteCurrentState snapshots task and agent statuses to
// .elisa/status/current_state.json for external observers.
func (w *Workspace) WriteCurrentState(tasks []*models.Task, agents []*models.Agent) error {
	state := currentState{
		Tasks:  make(map[string]taskState, len(tasks)),
		Agents: make(map[string]agentState, len(agents)),
	}
	for _, t := range tasks {
		state.Tasks[t.ID] = taskState{
			Name:      t.Name,
			Status:    string(t.Status),
			AgentName: t.AgentName,
		}
	}
	for _, a := range agents {
		state.Agents[a.Name] = agentState{
			Role:   string(a.Role),
			Status: string(a.Status),
		}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal current state: %w", err)
	}
	path := filepath.Join(w.ControlPath(), "status", "current_state.json")
	return os.WriteFile(path, data, 0644)
}
