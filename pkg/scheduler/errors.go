package scheduler

import "errors"

// ErrInfeasibleDeadline is raised by EPSM when no VM type in the
// catalog can complete the workflow's makespan before its deadline.
// It is scheduler-local: EPSM sets its workflow wrapper's Failed flag and
// returns the error from SubmitWorkflow, the event loop logs it and does
// not halt (§7). It is not recorded on the workflow's metrics.Stats.
var ErrInfeasibleDeadline = errors.New("infeasible deadline")

// ErrInfeasibleBudget is raised by EBPSM when no VM type is affordable
// even under the slowest allocation. The policy assigns the residual
// budget and proceeds rather than treating this as fatal. Min-MinBUDG
// does not return it; it logs a warning when a task's price exceeds
// what it has available.
var ErrInfeasibleBudget = errors.New("infeasible budget")
