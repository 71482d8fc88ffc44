package socket

import (
	"github.com/printready/proofdesk-backend/internal/repository"
)

// AdminFeedRoom is the room admin dashboards join to watch the live event
// stream.
const AdminFeedRoom = "admin:feed"

// Broadcaster provides high-level methods for broadcasting domain events
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// BroadcastProofCreated pushes a new proof onto the admin feed and, when the
// owner is a connected durable identity, onto their personal room.
func (b *Broadcaster) BroadcastProofCreated(proof *repository.Proof) {
	payload := proofPayload(proof)
	b.hub.SendToRoom(AdminFeedRoom, MessageProofCreated, payload, "")
	if proof.OwnerKey != "" {
		b.hub.SendToUser(proof.OwnerKey, MessageProofCreated, payload)
	}
}

// BroadcastProofStatusChanged pushes a status transition to the admin feed
// and the owner.
func (b *Broadcaster) BroadcastProofStatusChanged(proof *repository.Proof, oldStatus, newStatus string) {
	payload := proofPayload(proof)
	payload["oldStatus"] = oldStatus
	payload["newStatus"] = newStatus
	b.hub.SendToRoom(AdminFeedRoom, MessageProofStatusChanged, payload, "")
	if proof.OwnerKey != "" {
		b.hub.SendToUser(proof.OwnerKey, MessageProofStatusChanged, payload)
	}
}

// BroadcastProofTransferred reports a completed ownership transfer batch.
func (b *Broadcaster) BroadcastProofTransferred(oldOwnerKey, newOwnerKey string, count int) {
	b.hub.SendToRoom(AdminFeedRoom, MessageProofTransferred, map[string]interface{}{
		"oldOwnerKey":      oldOwnerKey,
		"newOwnerKey":      newOwnerKey,
		"transferredCount": count,
	}, "")
}

// BroadcastInvitationIssued reports a new invitation on the admin feed.
func (b *Broadcaster) BroadcastInvitationIssued(placeholderID, email string, proofCount int) {
	b.hub.SendToRoom(AdminFeedRoom, MessageInvitationIssued, map[string]interface{}{
		"placeholderId": placeholderID,
		"email":         email,
		"proofCount":    proofCount,
	}, "")
}

// BroadcastIdentityActivated reports a placeholder upgrade on the admin feed.
func (b *Broadcaster) BroadcastIdentityActivated(durableID, email string, transferredCount int) {
	b.hub.SendToRoom(AdminFeedRoom, MessageIdentityActivated, map[string]interface{}{
		"durableId":        durableID,
		"email":            email,
		"transferredCount": transferredCount,
	}, "")
}

// BroadcastIdentityDeleted reports a completed identity teardown.
func (b *Broadcaster) BroadcastIdentityDeleted(deletedID string, proofsReassigned int) {
	b.hub.SendToRoom(AdminFeedRoom, MessageIdentityDeleted, map[string]interface{}{
		"deletedId":        deletedID,
		"proofsReassigned": proofsReassigned,
	}, "")
}

func proofPayload(proof *repository.Proof) map[string]interface{} {
	return map[string]interface{}{
		"id":                proof.ID,
		"title":             proof.Title,
		"ownerKey":          proof.OwnerKey,
		"ownerEmail":        proof.OwnerEmail,
		"status":            proof.Status,
		"notificationState": proof.NotificationState,
		"revisionNumber":    proof.RevisionNumber,
	}
}
