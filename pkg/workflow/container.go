package workflow

// Container is a value type identifying the software environment a
// workflow's tasks run in. Two containers are equal when they belong to
// the same workflow and carry the same provisioning time; this is enough
// to let the VM manager recognize "this VM already has my container".
type Container struct {
	WorkflowID    string
	ProvisionTime int64 // seconds to provision this container onto a bare VM
}

// Equal reports whether c and other identify the same container.
func (c Container) Equal(other Container) bool {
	return c.WorkflowID == other.WorkflowID && c.ProvisionTime == other.ProvisionTime
}
