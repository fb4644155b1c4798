package db

import (
	"context"
	"crypto/rand"
	"fmt"

	"go.uber.org/zap"

	"choreboard-backend-go/internal/models"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// InviteRepository covers the two invite collections: short-lived codes at
// inviteCodes/{code} and email-keyed invitations at invitations/{email}.
// Invites are read on demand at join time, so this repository holds no live
// subscription.
type InviteRepository struct {
	store  Store
	logger *zap.Logger
}

// NewInviteRepository creates an InviteRepository on the given store.
func NewInviteRepository(store Store, logger *zap.Logger) *InviteRepository {
	return &InviteRepository{store: store, logger: logger}
}

// CreateInviteCode stores a new code document.
func (r *InviteRepository) CreateInviteCode(ctx context.Context, code models.InviteCode) error {
	if code.Code == "" {
		return fmt.Errorf("invite code cannot be empty")
	}
	return r.store.SetDocument(ctx, InviteCodePath(code.Code), code.Map())
}

// GetInviteCode fetches a code document, returning ErrNotFound when the code
// was never issued.
func (r *InviteRepository) GetInviteCode(ctx context.Context, code string) (models.InviteCode, error) {
	doc, err := r.store.GetDocument(ctx, InviteCodePath(code))
	if err != nil {
		return models.InviteCode{}, err
	}
	return models.DecodeInviteCode(InviteCodesCollection, code, doc.Data)
}

// DeleteInviteCode removes a consumed or revoked code.
func (r *InviteRepository) DeleteInviteCode(ctx context.Context, code string) error {
	return r.store.DeleteDocument(ctx, InviteCodePath(code))
}

// CreateInvitation stores an email-keyed invitation.
func (r *InviteRepository) CreateInvitation(ctx context.Context, inv models.Invitation) error {
	if inv.Email == "" {
		return fmt.Errorf("invitation email cannot be empty")
	}
	return r.store.SetDocument(ctx, InvitationPath(inv.Email), inv.Map())
}

// GetInvitation fetches the invitation for an email address.
func (r *InviteRepository) GetInvitation(ctx context.Context, email string) (models.Invitation, error) {
	doc, err := r.store.GetDocument(ctx, InvitationPath(email))
	if err != nil {
		return models.Invitation{}, err
	}
	return models.DecodeInvitation(InvitationsCollection, email, doc.Data)
}

// DeleteInvitation removes a consumed invitation.
func (r *InviteRepository) DeleteInvitation(ctx context.Context, email string) error {
	return r.store.DeleteDocument(ctx, InvitationPath(email))
}

// NewCode generates a random invite code. The alphabet omits characters that
// are easy to misread when typed from another device.
func NewCode(length int) (string, error) {
	if length <= 0 {
		length = 8
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate invite code: %w", err)
	}
	for i, byt := range b {
		b[i] = codeAlphabet[int(byt)%len(codeAlphabet)]
	}
	return string(b), nil
}
