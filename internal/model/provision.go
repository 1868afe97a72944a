package model

// ProvisionSignalName is the signal used to enqueue tasks on the per-workshop
// orchestrator workflow.
const ProvisionSignalName = "provision"

// ProvisionTask is one unit of work routed through the per-workshop
// orchestrator. Arg must be serializable by the Temporal data converter.
type ProvisionTask struct {
	WorkflowName string `json:"workflow_name"`
	WorkflowID   string `json:"workflow_id"`
	Arg          any    `json:"arg"`
}
