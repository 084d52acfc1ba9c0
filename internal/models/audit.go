package models

import "time"

// Audited portal actions.
const (
	AuditActionLogin                = "LOGIN"
	AuditActionLogout               = "LOGOUT"
	AuditActionChangeStatus         = "CHANGE_STATUS"
	AuditActionCreateProject        = "CREATE_PROJECT"
	AuditActionInviteDirector       = "INVITE_DIRECTOR"
	AuditActionCancelDirectorInvite = "CANCEL_DIRECTOR_INVITE"
	AuditActionRespondInvitation    = "RESPOND_INVITATION"
	AuditActionInvitePeer           = "INVITE_PEER"
	AuditActionRequestMeeting       = "REQUEST_MEETING"
	AuditActionRegisterMeeting      = "REGISTER_MEETING"
	AuditActionExport               = "EXPORT_PROJECTS"
	AuditActionAccessDenied         = "ACCESS_DENIED"
)

// Audit outcomes.
const (
	AuditOutcomeSuccess = "SUCCESS"
	AuditOutcomeFailure = "FAILURE"
)

// AuditLog is one recorded portal mutation.
type AuditLog struct {
	ID        string    `db:"id" json:"id"`
	Actor     string    `db:"actor" json:"actor"`
	Role      Role      `db:"role" json:"role"`
	Action    string    `db:"action" json:"action"`
	ProjectID *int64    `db:"project_id" json:"projectId,omitempty"`
	Outcome   string    `db:"outcome" json:"outcome"`
	Detail    *string   `db:"detail" json:"detail,omitempty"`
	RequestID *string   `db:"request_id" json:"requestId,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
