// Package graph provides the task dependency graph for build scheduling.
package graph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found in the task graph.
var ErrCycleDetected = errors.New("circular dependency detected")

// TaskGraph represents a directed acyclic graph of task dependencies.
// Tasks are nodes, and edges represent "depends on" relationships.
// Insertion order is preserved, and every ordering-sensitive operation
// (TopologicalOrder, GetReady, GetDependents) is deterministic across runs:
// no result depends on map iteration order.
//
// The graph holds no completion state. The coordinator owns the set of
// successfully-completed task IDs and passes it into GetReady.
type TaskGraph struct {
	mu sync.RWMutex
	// nodes maps task ID to the task itself.
	nodes map[string]*models.Task
	// order records task IDs in insertion order.
	order []string
	// edges maps task ID to the IDs of tasks it depends on.
	edges map[string][]string
	// dependents is the reverse adjacency, in insertion order.
	dependents map[string][]string
	// debugLog is an optional logging function.
	debugLog func(format string, args ...interface{})
}

// New creates a new empty task graph.
func New() *TaskGraph {
	return &TaskGraph{
		nodes:      make(map[string]*models.Task),
		edges:      make(map[string][]string),
		dependents: make(map[string][]string),
		debugLog:   func(format string, args ...interface{}) {},
	}
}

// SetDebugLog sets the debug logging function.
func (g *TaskGraph) SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		g.debugLog = fn
	}
}

// AddTask registers a task as a graph node. Dependencies are recorded but
// not resolved until Build or Validate runs. A task with no status is
// normalized to pending. Returns an error on a duplicate ID.
func (g *TaskGraph) AddTask(task *models.Task) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addTaskLocked(task)
}

func (g *TaskGraph) addTaskLocked(task *models.Task) error {
	if task.ID == "" {
		return errors.New("task has empty ID")
	}
	if _, exists := g.nodes[task.ID]; exists {
		return fmt.Errorf("duplicate task ID %s", task.ID)
	}
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	g.nodes[task.ID] = task
	g.order = append(g.order, task.ID)
	g.edges[task.ID] = append([]string(nil), task.DependsOn...)
	return nil
}

// Build constructs the graph from a slice of tasks and validates it.
// Returns an error if a task ID is duplicated, a dependency references an
// unknown task, or the graph contains a cycle. Validation happens before
// any dispatch: a bad plan never partially executes.
func (g *TaskGraph) Build(tasks []*models.Task) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.debugLog("[graph.Build] building graph from %d tasks", len(tasks))

	for _, task := range tasks {
		if err := g.addTaskLocked(task); err != nil {
			return err
		}
	}

	return g.validateLocked()
}

// Validate checks dangling references and acyclicity for tasks added
// incrementally via AddTask.
func (g *TaskGraph) Validate() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.validateLocked()
}

func (g *TaskGraph) validateLocked() error {
	// Rebuild the reverse adjacency in insertion order so GetDependents
	// and Kahn's drain step stay deterministic.
	g.dependents = make(map[string][]string, len(g.nodes))
	for _, id := range g.order {
		for _, depID := range g.edges[id] {
			if _, exists := g.nodes[depID]; !exists {
				return fmt.Errorf("task %s depends on unknown task %s", id, depID)
			}
			g.dependents[depID] = append(g.dependents[depID], id)
		}
	}

	if _, err := g.kahnLocked(); err != nil {
		return err
	}

	g.debugLog("[graph.Build] graph validated with %d nodes", len(g.nodes))
	return nil
}

// TopologicalOrder returns task IDs in an order where every task appears
// after all of its dependencies, using Kahn's algorithm. The zero-indegree
// seed queue is populated in insertion order and drained FIFO, so the
// result is identical across runs for identical input.
// Returns ErrCycleDetected if not all nodes can be drained.
func (g *TaskGraph) TopologicalOrder() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.kahnLocked()
}

func (g *TaskGraph) kahnLocked() ([]string, error) {
	indegree := make(map[string]int, len(g.nodes))
	for _, id := range g.order {
		indegree[id] = len(g.edges[id])
	}

	queue := make([]string, 0, len(g.order))
	for _, id := range g.order {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	result := make([]string, 0, len(g.order))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		result = append(result, id)

		for _, depdt := range g.dependents[id] {
			indegree[depdt]--
			if indegree[depdt] == 0 {
				queue = append(queue, depdt)
			}
		}
	}

	if len(result) != len(g.order) {
		return nil, ErrCycleDetected
	}
	return result, nil
}

// HasCycle returns true if the graph contains a circular dependency.
func (g *TaskGraph) HasCycle() bool {
	_, err := g.TopologicalOrder()
	return err != nil
}

// GetReady returns, in insertion order, the IDs of pending tasks not in
// completed whose full dependency set is a subset of completed. Tasks that
// are in progress or terminal are never returned; a permanently failed
// task's dependents therefore never appear here and stay pending.
func (g *TaskGraph) GetReady(completed map[string]bool) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var ready []string
	for _, id := range g.order {
		if completed[id] {
			continue
		}
		if g.nodes[id].Status != models.TaskStatusPending {
			continue
		}

		satisfied := true
		for _, depID := range g.edges[id] {
			if !completed[depID] {
				satisfied = false
				break
			}
		}
		if satisfied {
			ready = append(ready, id)
		}
	}

	g.debugLog("[graph.GetReady] %d ready: %v", len(ready), ready)
	return ready
}

// GetTask returns the task for a given ID, or nil if not found.
func (g *TaskGraph) GetTask(taskID string) *models.Task {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[taskID]
}

// Size returns the number of tasks in the graph.
func (g *TaskGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// TaskIDs returns all task IDs in insertion order.
func (g *TaskGraph) TaskIDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.order...)
}

// GetDependencies returns the IDs of tasks that the given task depends on.
func (g *TaskGraph) GetDependencies(taskID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.edges[taskID]...)
}

// GetDependents returns, in insertion order, the IDs of tasks that depend
// on the given task.
func (g *TaskGraph) GetDependents(taskID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.dependents[taskID]...)
}
