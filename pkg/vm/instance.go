package vm

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cuemby/cloudsim/pkg/workflow"
)

// State is a VM instance's lifecycle state.
type State int

const (
	NotProvisioned State = iota
	Provisioned
	Busy
	Shutdown
)

func (s State) String() string {
	switch s {
	case NotProvisioned:
		return "NOT_PROVISIONED"
	case Provisioned:
		return "PROVISIONED"
	case Busy:
		return "BUSY"
	case Shutdown:
		return "SHUTDOWN"
	default:
		return "UNKNOWN"
	}
}

// TaskRef identifies a task without owning it.
type TaskRef struct {
	WorkflowID string
	TaskID     int
}

// Instance is a leased VM of a given Type. State transitions are
// enforced here; an illegal source state is a STATE_VIOLATION (§7) and
// panics rather than returning an error, since it indicates a
// programming error in the caller (the scheduler or manager).
type Instance struct {
	UUID  string
	Type  Type
	State State

	StartTime        float64
	FinishTime       float64
	LastReleaseTime  float64
	hasStart         bool
	hasFinish        bool
	hasLastRelease   bool
	ReservedBy       *TaskRef

	Files      map[workflow.File]struct{}
	Containers map[workflow.Container]struct{}
}

// NewInstance creates a NOT_PROVISIONED VM of the given type.
func NewInstance(t Type) *Instance {
	return &Instance{
		UUID:       uuid.New().String(),
		Type:       t,
		State:      NotProvisioned,
		Files:      make(map[workflow.File]struct{}),
		Containers: make(map[workflow.Container]struct{}),
	}
}

func (v *Instance) illegal(op string) {
	panic(fmt.Sprintf("vm %s: %s from state %s", v.UUID, op, v.State))
}

// Provision transitions NOT_PROVISIONED -> PROVISIONED.
func (v *Instance) Provision(now float64) {
	if v.State != NotProvisioned {
		v.illegal("provision")
	}
	v.State = Provisioned
	v.StartTime = now
	v.hasStart = true
}

// Reserve transitions PROVISIONED -> BUSY for the given task.
func (v *Instance) Reserve(task TaskRef) {
	if v.State != Provisioned {
		v.illegal("reserve")
	}
	v.State = Busy
	ref := task
	v.ReservedBy = &ref
}

// Release transitions BUSY -> PROVISIONED.
func (v *Instance) Release(now float64) {
	if v.State != Busy {
		v.illegal("release")
	}
	v.State = Provisioned
	v.ReservedBy = nil
	v.LastReleaseTime = now
	v.hasLastRelease = true
}

// ShutdownAt transitions PROVISIONED -> SHUTDOWN, finalizing FinishTime.
func (v *Instance) ShutdownAt(now float64) {
	if v.State != Provisioned {
		v.illegal("shutdown")
	}
	v.State = Shutdown
	v.FinishTime = now
	v.hasFinish = true
}

// IdleSince returns the virtual time this VM became idle: its last
// release time if it has ever been reserved, else its provisioning
// start time.
func (v *Instance) IdleSince() float64 {
	if v.hasLastRelease {
		return v.LastReleaseTime
	}
	return v.StartTime
}

// HasFile reports whether the VM already holds a local copy of f.
func (v *Instance) HasFile(f workflow.File) bool {
	_, ok := v.Files[f]
	return ok
}

// AddFile records that the VM now holds a local copy of f.
func (v *Instance) AddFile(f workflow.File) { v.Files[f] = struct{}{} }

// HasContainer reports whether the VM already has c provisioned.
func (v *Instance) HasContainer(c workflow.Container) bool {
	_, ok := v.Containers[c]
	return ok
}

// AddContainer records that the VM now has c provisioned.
func (v *Instance) AddContainer(c workflow.Container) { v.Containers[c] = struct{}{} }

// HasInputFiles reports whether the VM already holds every file in files.
func (v *Instance) HasInputFiles(files []workflow.File) bool {
	for _, f := range files {
		if !v.HasFile(f) {
			return false
		}
	}
	return true
}
