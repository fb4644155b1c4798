package core

import (
	"context"
	"fmt"
	"sync"

	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
)

// TokenVerifier turns a bearer token into a user id.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (string, error)
}

// FirebaseVerifier checks ID tokens against Firebase Auth.
type FirebaseVerifier struct {
	client *auth.Client
}

func NewFirebaseVerifier(client *auth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (string, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("verify id token: %w", err)
	}
	return token.UID, nil
}

// AuthService verifies tokens and keeps one live Session per signed-in user.
type AuthService struct {
	verifier TokenVerifier
	deps     SessionDeps
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewAuthService(verifier TokenVerifier, deps SessionDeps, logger *zap.Logger) *AuthService {
	return &AuthService{
		verifier: verifier,
		deps:     deps,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Verify resolves a bearer token to a user id.
func (a *AuthService) Verify(ctx context.Context, idToken string) (string, error) {
	return a.verifier.Verify(ctx, idToken)
}

// Session returns the user's session, creating and starting it on first use.
func (a *AuthService) Session(userID string) *Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.sessions[userID]; ok {
		return s
	}
	s := NewSession(userID, a.deps)
	a.sessions[userID] = s
	s.Start()
	a.logger.Info("session started", zap.String("uid", userID))
	return s
}

// SignOut closes and discards the user's session. Closing cascades the reset
// through every repository the session owns. Signing out a user with no
// session is a no-op.
func (a *AuthService) SignOut(userID string) {
	a.mu.Lock()
	s, ok := a.sessions[userID]
	delete(a.sessions, userID)
	a.mu.Unlock()
	if !ok {
		return
	}
	s.Close()
	a.logger.Info("session closed", zap.String("uid", userID))
}

// Shutdown closes every live session.
func (a *AuthService) Shutdown() {
	a.mu.Lock()
	sessions := a.sessions
	a.sessions = make(map[string]*Session)
	a.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
