// Package trace parses WfCommons-style workflow traces (external JSON
// input, §6) into pkg/workflow.Workflow values. Trace parsing is
// explicitly an external collaborator to the simulation core — it
// never touches the event loop, scheduler, or VM manager.
package trace

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cuemby/cloudsim/pkg/workflow"
)

type rawFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Link string `json:"link"` // "input" or "output"
}

type rawJob struct {
	Name    string    `json:"name"`
	Parents []string  `json:"parents"`
	Files   []rawFile `json:"files"`
	Runtime float64   `json:"runtime"`
	Cores   int       `json:"cores"`
}

type rawContainer struct {
	ProvisionTime int64 `json:"provision_time"`
}

type rawWorkflowBody struct {
	Container rawContainer `json:"container"`
	Jobs      []rawJob     `json:"jobs"`
}

type rawTrace struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Workflow    rawWorkflowBody `json:"workflow"`
}

// Parse reads a WfCommons-schema JSON trace and builds a Workflow with
// dense task ids assigned in file order. submitTime, deadline and budget
// are supplied by the driver — the trace format itself carries neither.
func Parse(r io.Reader, submitTime float64, deadline, budget *float64) (*workflow.Workflow, error) {
	var raw rawTrace
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("trace: decode: %w", err)
	}

	container := workflow.Container{ProvisionTime: raw.Workflow.Container.ProvisionTime}

	nameToID := make(map[string]int, len(raw.Workflow.Jobs))
	tasks := make([]*workflow.Task, 0, len(raw.Workflow.Jobs))

	for i, job := range raw.Workflow.Jobs {
		if _, dup := nameToID[job.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate job name %q", ErrBadTrace, job.Name)
		}

		parentIDs := make([]int, 0, len(job.Parents))
		for _, pname := range job.Parents {
			pid, ok := nameToID[pname]
			if !ok {
				return nil, fmt.Errorf("%w: job %q lists parent %q which has not appeared yet", ErrBadTrace, job.Name, pname)
			}
			parentIDs = append(parentIDs, pid)
		}

		var inputs, outputs []workflow.File
		for _, f := range job.Files {
			wf := workflow.File{Name: f.Name, SizeKB: f.Size}
			switch f.Link {
			case "input":
				inputs = append(inputs, wf)
			case "output":
				outputs = append(outputs, wf)
			default:
				return nil, fmt.Errorf("%w: job %q file %q has unknown link %q", ErrBadTrace, job.Name, f.Name, f.Link)
			}
		}

		cores := job.Cores
		if cores <= 0 {
			cores = 1
		}

		task := &workflow.Task{
			ID:          i,
			Name:        job.Name,
			Parents:     parentIDs,
			InputFiles:  inputs,
			OutputFiles: outputs,
			RuntimeS:    job.Runtime / float64(cores),
		}
		nameToID[job.Name] = i
		tasks = append(tasks, task)
	}

	return workflow.New(raw.Name, raw.Description, tasks, container, submitTime, deadline, budget)
}
