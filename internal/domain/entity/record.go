package entity

import "time"

// ApprovalRecord is one approver's decision on one stage of a workflow
// instance. Records are append-only: they are written exactly once and never
// updated or deleted, forming the audit trail of the workflow.
type ApprovalRecord struct {
	ID          int64     `json:"id"`
	InstanceID  int64     `json:"instance_id"`
	StageIndex  int       `json:"stage_index"`
	ApproverID  int64     `json:"approver_id"`
	RoleActedAs Role      `json:"role_acted_as"`
	Decision    Decision  `json:"decision"`
	Comment     string    `json:"comment,omitempty"`
	DecidedAt   time.Time `json:"decided_at"`
}

// SystemApproverID marks engine-authored records (withdrawal).
const SystemApproverID int64 = 0

// NewCancellationRecord builds the system-authored record appended when an
// expense is withdrawn by its submitter.
func NewCancellationRecord(instanceID int64, stageIndex int, comment string) *ApprovalRecord {
	return &ApprovalRecord{
		InstanceID:  instanceID,
		StageIndex:  stageIndex,
		ApproverID:  SystemApproverID,
		RoleActedAs: RoleSystem,
		Decision:    DecisionCancel,
		Comment:     comment,
		DecidedAt:   time.Now(),
	}
}
