package domain

// AgentStatus is the lifecycle state of one agent run.
type AgentStatus string

const (
	AgentStatusRunning    = AgentStatus("running")
	AgentStatusDone       = AgentStatus("done")
	AgentStatusAbortedMax = AgentStatus("aborted_max_rounds")
	AgentStatusFailed     = AgentStatus("failed")
)
