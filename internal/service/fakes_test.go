package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/printready/proofdesk-backend/internal/repository"
	"github.com/printready/proofdesk-backend/internal/types"
)

// In-memory repository fakes. Each fake supports error injection through its
// failWith field so tests can exercise the degraded paths.

// ============================================
// Profile fake
// ============================================

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*repository.Profile
	// placeholders lets UpgradeFromPlaceholder emulate the cross-table commit.
	placeholders *fakePlaceholderRepo
	failWith     error
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*repository.Profile)}
}

func (f *fakeProfileRepo) Upsert(ctx context.Context, p *repository.Profile) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.profiles[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	cp := *p
	f.profiles[p.ID] = &cp
	return nil
}

func (f *fakeProfileRepo) FindByID(ctx context.Context, id string) (*repository.Profile, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeProfileRepo) FindActiveByEmail(ctx context.Context, email string) (*repository.Profile, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.Email == email && p.Status == types.ProfileActive {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeProfileRepo) UpdateStatus(ctx context.Context, id, status string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[id]; ok {
		p.Status = status
	}
	return nil
}

func (f *fakeProfileRepo) UpdateRole(ctx context.Context, id, role string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[id]; ok {
		p.Role = role
	}
	return nil
}

func (f *fakeProfileRepo) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[id]; ok {
		p.DisplayName = displayName
	}
	return nil
}

func (f *fakeProfileRepo) Delete(ctx context.Context, id string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.profiles, id)
	return nil
}

func (f *fakeProfileRepo) List(ctx context.Context, limit, offset int) ([]*repository.Profile, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.profiles))
	for id := range f.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []*repository.Profile
	for i, id := range ids {
		if i < offset {
			continue
		}
		if len(out) >= limit {
			break
		}
		cp := *f.profiles[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeProfileRepo) UpgradeFromPlaceholder(ctx context.Context, p *repository.Profile, placeholderID string) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	if err := f.Upsert(ctx, p); err != nil {
		return false, err
	}
	if f.placeholders == nil {
		return false, nil
	}
	return f.placeholders.MarkCompleted(ctx, placeholderID)
}

// ============================================
// Placeholder fake
// ============================================

type fakePlaceholderRepo struct {
	mu           sync.Mutex
	placeholders map[string]*repository.Placeholder
	seq          int
	failWith     error
}

func newFakePlaceholderRepo() *fakePlaceholderRepo {
	return &fakePlaceholderRepo{placeholders: make(map[string]*repository.Placeholder)}
}

func (f *fakePlaceholderRepo) Create(ctx context.Context, ph *repository.Placeholder) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	ph.ID = "ph-" + strconv.Itoa(f.seq)
	if ph.InvitedAt.IsZero() {
		ph.InvitedAt = time.Now()
	}
	cp := *ph
	f.placeholders[ph.ID] = &cp
	return nil
}

func (f *fakePlaceholderRepo) FindByID(ctx context.Context, id string) (*repository.Placeholder, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if ph, ok := f.placeholders[id]; ok {
		cp := *ph
		return &cp, nil
	}
	return nil, nil
}

func (f *fakePlaceholderRepo) FindPendingByEmail(ctx context.Context, email string) (*repository.Placeholder, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *repository.Placeholder
	for _, ph := range f.placeholders {
		if ph.Email != email || ph.Status != types.PlaceholderPending {
			continue
		}
		if latest == nil || ph.InvitedAt.After(latest.InvitedAt) {
			latest = ph
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakePlaceholderRepo) MarkCompleted(ctx context.Context, id string) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ph, ok := f.placeholders[id]
	if !ok || ph.Status != types.PlaceholderPending {
		return false, nil
	}
	now := time.Now()
	ph.Status = types.PlaceholderCompleted
	ph.CompletedAt = &now
	return true, nil
}

func (f *fakePlaceholderRepo) MarkReminderSent(ctx context.Context, id string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if ph, ok := f.placeholders[id]; ok {
		now := time.Now()
		ph.ReminderSentAt = &now
	}
	return nil
}

func (f *fakePlaceholderRepo) ListPending(ctx context.Context) ([]*repository.Placeholder, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*repository.Placeholder
	for _, ph := range f.placeholders {
		if ph.Status == types.PlaceholderPending {
			cp := *ph
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakePlaceholderRepo) ListPendingInvitedBefore(ctx context.Context, cutoff time.Time) ([]*repository.Placeholder, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*repository.Placeholder
	for _, ph := range f.placeholders {
		if ph.Status == types.PlaceholderPending && ph.InvitedAt.Before(cutoff) {
			cp := *ph
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakePlaceholderRepo) Delete(ctx context.Context, id string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.placeholders, id)
	return nil
}

// ============================================
// Claim fake
// ============================================

type fakeClaimRepo struct {
	mu       sync.Mutex
	claims   map[string]*repository.ActivationClaim
	failWith error
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{claims: make(map[string]*repository.ActivationClaim)}
}

func (f *fakeClaimRepo) Put(ctx context.Context, claim *repository.ActivationClaim) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	claim.CreatedAt = time.Now()
	cp := *claim
	f.claims[claim.Email] = &cp
	return nil
}

func (f *fakeClaimRepo) FindLiveByEmail(ctx context.Context, email string) (*repository.ActivationClaim, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if claim, ok := f.claims[email]; ok && claim.ExpiresAt.After(time.Now()) {
		cp := *claim
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeClaimRepo) DeleteByEmail(ctx context.Context, email string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.claims, email)
	return nil
}

func (f *fakeClaimRepo) DeleteExpired(ctx context.Context) (int, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	removed := 0
	for email, claim := range f.claims {
		if claim.ExpiresAt.Before(time.Now()) {
			delete(f.claims, email)
			removed++
		}
	}
	return removed, nil
}

// ============================================
// Proof fake
// ============================================

type fakeProofRepo struct {
	mu       sync.Mutex
	proofs   map[string]*repository.Proof
	seq      int
	failWith error
}

func newFakeProofRepo() *fakeProofRepo {
	return &fakeProofRepo{proofs: make(map[string]*repository.Proof)}
}

func (f *fakeProofRepo) Create(ctx context.Context, proof *repository.Proof) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	proof.ID = "proof-" + strconv.Itoa(f.seq)
	if proof.Status == "" {
		proof.Status = types.ProofPending
	}
	if proof.NotificationState == "" {
		proof.NotificationState = types.NotifNotSent
	}
	proof.CreatedAt = time.Now()
	cp := *proof
	f.proofs[proof.ID] = &cp
	return nil
}

func (f *fakeProofRepo) FindByID(ctx context.Context, id string) (*repository.Proof, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.proofs[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeProofRepo) FindByOwnerKey(ctx context.Context, ownerKey string) ([]*repository.Proof, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*repository.Proof
	for _, p := range f.proofs {
		if p.OwnerKey == ownerKey {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeProofRepo) FindPendingByOwnerEmail(ctx context.Context, email string) ([]*repository.Proof, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*repository.Proof
	for _, p := range f.proofs {
		if p.OwnerEmail == email && p.Status == types.ProofPending {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeProofRepo) CountByRevisionChain(ctx context.Context, chainID string) (int, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, p := range f.proofs {
		if p.RevisionChainID != nil && *p.RevisionChainID == chainID {
			count++
		}
	}
	return count, nil
}

func (f *fakeProofRepo) TransferOwnership(ctx context.Context, oldOwnerKey, newDurableID string) (int, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	moved := 0
	for _, p := range f.proofs {
		if p.OwnerKey == oldOwnerKey {
			old := oldOwnerKey
			p.OwnerKey = newDurableID
			p.OriginalInvitationID = &old
			p.TransferredAt = &now
			moved++
		}
	}
	return moved, nil
}

func (f *fakeProofRepo) UpdateStatus(ctx context.Context, id, status string, feedback *string) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.proofs[id]
	if !ok {
		return "", nil
	}
	old := p.Status
	p.Status = status
	if feedback != nil {
		p.Feedback = feedback
	}
	return old, nil
}

func (f *fakeProofRepo) SetNotificationState(ctx context.Context, id, state string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.proofs[id]; ok {
		p.NotificationState = state
	}
	return nil
}

func (f *fakeProofRepo) MarkBundledPendingByEmail(ctx context.Context, email string) (int, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, p := range f.proofs {
		if p.OwnerEmail == email && p.Status == types.ProofPending && p.NotificationState == types.NotifNotSent {
			p.NotificationState = types.NotifBundledInInvitation
			count++
		}
	}
	return count, nil
}

func (f *fakeProofRepo) ReassignReferences(ctx context.Context, fromID, toID string) (int, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	touched := make(map[string]bool)
	for id, p := range f.proofs {
		if p.OwnerKey == fromID {
			p.OwnerKey = toID
			touched[id] = true
		}
		for i, a := range p.AssignedTo {
			if a == fromID {
				p.AssignedTo[i] = toID
				touched[id] = true
			}
		}
	}
	return len(touched), nil
}

// ============================================
// Audit fake
// ============================================

type fakeAuditRepo struct {
	mu       sync.Mutex
	records  []*repository.AuditRecord
	failWith error
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (f *fakeAuditRepo) Create(ctx context.Context, rec *repository.AuditRecord) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = "audit-" + strconv.Itoa(len(f.records)+1)
	rec.CreatedAt = time.Now()
	cp := *rec
	f.records = append(f.records, &cp)
	return nil
}

func (f *fakeAuditRepo) ListRecent(ctx context.Context, limit int) ([]*repository.AuditRecord, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*repository.AuditRecord, 0, len(f.records))
	for i := len(f.records) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *f.records[i]
		out = append(out, &cp)
	}
	return out, nil
}

// ============================================
// Auth fake
// ============================================

type fakeAuthRepo struct {
	mu       sync.Mutex
	creds    map[string]*repository.Credential
	tokens   map[string]*repository.RefreshToken
	seq      int
	failWith error
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		creds:  make(map[string]*repository.Credential),
		tokens: make(map[string]*repository.RefreshToken),
	}
}

func (f *fakeAuthRepo) CreateCredential(ctx context.Context, cred *repository.Credential) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	cred.ID = "cred-" + strconv.Itoa(f.seq)
	cred.CreatedAt = time.Now()
	cp := *cred
	f.creds[cred.ID] = &cp
	return nil
}

func (f *fakeAuthRepo) FindCredentialByEmail(ctx context.Context, email string) (*repository.Credential, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cred := range f.creds {
		if cred.Email == email {
			cp := *cred
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAuthRepo) FindCredentialByID(ctx context.Context, id string) (*repository.Credential, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if cred, ok := f.creds[id]; ok {
		cp := *cred
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeAuthRepo) DeleteCredential(ctx context.Context, id string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.creds, id)
	return nil
}

func (f *fakeAuthRepo) CreateRefreshToken(ctx context.Context, token *repository.RefreshToken) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	token.CreatedAt = time.Now()
	cp := *token
	f.tokens[token.Token] = &cp
	return nil
}

func (f *fakeAuthRepo) FindRefreshToken(ctx context.Context, token string) (*repository.RefreshToken, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if rt, ok := f.tokens[token]; ok {
		cp := *rt
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeAuthRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

func (f *fakeAuthRepo) DeleteTokensForUser(ctx context.Context, userID string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, rt := range f.tokens {
		if rt.UserID == userID {
			delete(f.tokens, token)
		}
	}
	return nil
}
