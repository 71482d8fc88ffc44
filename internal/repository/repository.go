// internal/repository/repository.go
package repository

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ============================================
// Models / Entities
// ============================================

// Profile is a durable, authenticated account. Exactly one exists per durable
// identifier; creation is always an upsert keyed by ID.
type Profile struct {
	ID                    string
	Email                 string
	DisplayName           string
	Role                  string
	Status                string
	OwnerKey              string
	OriginalPlaceholderID *string
	InvitedBy             *string
	ActivatedAt           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Placeholder is an invited-but-not-yet-activated client. Its ID doubles as
// the owner key for proofs uploaded before activation.
type Placeholder struct {
	ID             string
	Email          string
	DisplayName    string
	Status         string
	InvitedBy      string
	InvitedAt      time.Time
	CompletedAt    *time.Time
	ReminderSentAt *time.Time
}

// Proof is an uploaded artifact awaiting or having received approval.
type Proof struct {
	ID                   string
	Title                string
	FileRef              string
	OwnerKey             string
	OwnerEmail           string
	Status               string
	NotificationState    string
	RevisionChainID      *string
	RevisionNumber       int
	Quantity             int
	UnitPrice            decimal.Decimal
	AssignedTo           []string
	Feedback             *string
	OriginalInvitationID *string
	TransferredAt        *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ActivationClaim is a short-lived reservation written by the activation flow
// so the generic sign-in listener does not race it with a bare profile.
type ActivationClaim struct {
	ID        string
	Email     string
	DurableID string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type AuditRecord struct {
	ID        string
	Action    string
	ActorID   string
	TargetID  string
	Details   map[string]interface{}
	CreatedAt time.Time
}

// Credential is the identity-provider side of an account. Kept separate from
// the profile so credential deletion can fail without blocking profile cleanup.
type Credential struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ============================================
// Repositories Container
// ============================================

type Repositories struct {
	ProfileRepo     ProfileRepository
	PlaceholderRepo PlaceholderRepository
	ClaimRepo       ClaimRepository
	ProofRepo       ProofRepository
	AuditRepo       AuditRepository
	AuthRepo        AuthRepository
}

func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		ProfileRepo:     NewProfileRepository(pool),
		PlaceholderRepo: NewPlaceholderRepository(pool),
		ClaimRepo:       NewClaimRepository(pool),
		ProofRepo:       NewProofRepository(pool),
		AuditRepo:       NewAuditRepository(pool),
		AuthRepo:        NewAuthRepository(pool),
	}
}
