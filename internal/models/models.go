package models

import "time"

// ============================================
// Auth
// ============================================

type RegisterRequest struct {
	DisplayName string `json:"displayName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type AuthResponse struct {
	UserID       string          `json:"userId"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	Profile      ProfileResponse `json:"profile"`
	Degraded     bool            `json:"degraded,omitempty"`
}

// ============================================
// Profiles
// ============================================

type ProfileResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	OwnerKey    string     `json:"ownerKey"`
	InvitedBy   *string    `json:"invitedBy,omitempty"`
	ActivatedAt *time.Time `json:"activatedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"displayName" binding:"required"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type UpdateProfileStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ============================================
// Proofs
// ============================================

type CreateProofRequest struct {
	Title           string   `json:"title" binding:"required"`
	FileRef         string   `json:"fileRef" binding:"required"`
	OwnerKey        string   `json:"ownerKey"`
	OwnerEmail      string   `json:"ownerEmail"`
	RevisionChainID *string  `json:"revisionChainId"`
	Quantity        int      `json:"quantity"`
	UnitPrice       string   `json:"unitPrice"`
	AssignedTo      []string `json:"assignedTo"`
}

type UpdateProofStatusRequest struct {
	Status   string  `json:"status" binding:"required"`
	Feedback *string `json:"feedback"`
}

type ProofResponse struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	FileRef           string     `json:"fileRef"`
	OwnerKey          string     `json:"ownerKey"`
	OwnerEmail        string     `json:"ownerEmail"`
	Status            string     `json:"status"`
	NotificationState string     `json:"notificationState"`
	RevisionChainID   *string    `json:"revisionChainId,omitempty"`
	RevisionNumber    int        `json:"revisionNumber"`
	Quantity          int        `json:"quantity"`
	UnitPrice         string     `json:"unitPrice"`
	AssignedTo        []string   `json:"assignedTo"`
	Feedback          *string    `json:"feedback,omitempty"`
	TransferredAt     *time.Time `json:"transferredAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// ============================================
// Invitations
// ============================================

type IssueInvitationRequest struct {
	Email       string `json:"email" binding:"required"`
	DisplayName string `json:"displayName"`
}

type PlaceholderResponse struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	DisplayName    string     `json:"displayName"`
	Status         string     `json:"status"`
	InvitedBy      string     `json:"invitedBy"`
	InvitedAt      time.Time  `json:"invitedAt"`
	ReminderSentAt *time.Time `json:"reminderSentAt,omitempty"`
}

type AcceptInvitationRequest struct {
	PlaceholderID string `json:"placeholderId" binding:"required"`
}

// ============================================
// Ownership transfer
// ============================================

type TransferRequest struct {
	OldOwnerKey  string `json:"oldOwnerKey" binding:"required"`
	NewDurableID string `json:"newDurableId" binding:"required"`
}

// ============================================
// Admin
// ============================================

type DeleteIdentityRequest struct {
	ReassignTo string `json:"reassignTo"`
}

type AuditRecordResponse struct {
	ID        string                 `json:"id"`
	Action    string                 `json:"action"`
	ActorID   string                 `json:"actorId"`
	TargetID  string                 `json:"targetId"`
	Details   map[string]interface{} `json:"details"`
	CreatedAt time.Time              `json:"createdAt"`
}
