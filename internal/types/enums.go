package types

// Profile roles
const (
	RoleAdmin    = "admin"
	RoleDesigner = "designer"
	RoleClient   = "client"
)

// Profile status values
const (
	ProfileActive   = "active"
	ProfileInactive = "inactive"
)

// Placeholder status values
const (
	PlaceholderPending   = "pending"
	PlaceholderCompleted = "completed"
)

// Proof status values
const (
	ProofPending          = "pending"
	ProofApproved         = "approved"
	ProofDeclined         = "declined"
	ProofInProduction     = "in_production"
	ProofInQualityControl = "in_quality_control"
	ProofCompleted        = "completed"
)

// Notification state values on a proof
const (
	NotifNotSent             = "not_sent"
	NotifSent                = "sent"
	NotifSentViaFallback     = "sent_via_fallback"
	NotifBundledInInvitation = "bundled_in_invitation"
)

// Valid values for validation
var ValidRoles = []string{RoleAdmin, RoleDesigner, RoleClient}

var ValidProofStatuses = []string{
	ProofPending, ProofApproved, ProofDeclined,
	ProofInProduction, ProofInQualityControl, ProofCompleted,
}

func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

func IsValidProofStatus(status string) bool {
	for _, s := range ValidProofStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Permissions derived from a profile role. Never stored; always recomputed.
type Permissions struct {
	ViewAll     bool `json:"viewAll"`
	Upload      bool `json:"upload"`
	Approve     bool `json:"approve"`
	ManageUsers bool `json:"manageUsers"`
}

func PermissionsForRole(role string) Permissions {
	switch role {
	case RoleAdmin:
		return Permissions{ViewAll: true, Upload: true, Approve: true, ManageUsers: true}
	case RoleDesigner:
		return Permissions{ViewAll: true, Upload: true, Approve: false, ManageUsers: false}
	case RoleClient:
		return Permissions{ViewAll: false, Upload: false, Approve: true, ManageUsers: false}
	default:
		return Permissions{}
	}
}
