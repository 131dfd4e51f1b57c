/*
Package log provides structured logging for cloudsim using zerolog.

A single package-level Logger is configured once via Init and handed out
to every long-lived component (event loop, VM manager, each scheduler) as
a child logger carrying a "component" field, plus optional workflow_id,
task_id, or vm_id fields for correlating log lines with simulation entities.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: os.Stdout})
	schedLog := log.WithComponent("epsm")
	schedLog.Info().Str("workflow_id", wfID).Msg("workflow submitted")
*/
package log
