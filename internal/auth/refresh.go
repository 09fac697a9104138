package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/tasklight/tasklight/internal/apierr"
	"github.com/tasklight/tasklight/internal/audit"
	"github.com/tasklight/tasklight/internal/sessions"
	"github.com/tasklight/tasklight/internal/tokens"
)

// Refresh rotates the presented refresh token. The old session row is
// conditionally marked rotated before anything new is minted; losing that
// race means the token was already consumed and counts as reuse.
//
// A replayed (already rotated) token or a device mismatch revokes the entire
// family. Every failure surfaces the same Unauthorized.
func (s *Service) Refresh(ctx context.Context, refreshToken, deviceID string) (*TokenPair, error) {
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		s.record(ctx, audit.Event{Type: EventRefreshFailed, Reason: "invalid_token"})
		return nil, apierr.Unauthorized("invalid refresh token")
	}

	session, err := s.sessions.GetByJTI(ctx, claims.JTI)
	if err != nil {
		return nil, apierr.Internal("session lookup failed")
	}

	if reason, familyReason := s.validateSession(claims, session, deviceID); reason != "" {
		if familyReason != "" {
			// Revoke by the stored row's family: the claim's familyId is
			// attacker-controlled input on the mismatch paths.
			if err := s.sessions.RevokeFamily(ctx, session.FamilyID, familyReason); err != nil {
				return nil, apierr.Internal("revoke failed")
			}
		}
		eventType := EventRefreshFailed
		if reason == "reuse_detected" {
			eventType = EventRefreshReuse
		}
		s.record(ctx, audit.Event{
			Type:     eventType,
			UserID:   claims.User.ID,
			FamilyID: claims.FamilyID,
			DeviceID: deviceID,
			Reason:   reason,
		})
		return nil, apierr.Unauthorized("invalid refresh token")
	}

	u, err := s.users.FindByID(ctx, claims.User.ID)
	if err != nil {
		return nil, apierr.Internal("lookup failed")
	}
	if u == nil {
		s.record(ctx, audit.Event{Type: EventRefreshFailed, UserID: claims.User.ID, FamilyID: claims.FamilyID, Reason: "user_not_found"})
		return nil, apierr.Unauthorized("invalid refresh token")
	}
	authUser := u.Auth()

	newJTI := uuid.NewString()
	rotated, err := s.sessions.MarkRotated(ctx, claims.JTI, newJTI)
	if err != nil {
		return nil, apierr.Internal("rotation failed")
	}
	if !rotated {
		// A concurrent request rotated this token first. The replay rule
		// applies the same as when the revocation is observed up front.
		if err := s.sessions.RevokeFamily(ctx, claims.FamilyID, sessions.ReasonReuseDetected); err != nil {
			return nil, apierr.Internal("revoke failed")
		}
		s.record(ctx, audit.Event{
			Type:     EventRefreshReuse,
			UserID:   claims.User.ID,
			FamilyID: claims.FamilyID,
			DeviceID: deviceID,
			Reason:   "reuse_detected",
		})
		return nil, apierr.Unauthorized("invalid refresh token")
	}

	access, err := s.codec.SignAccess(authUser)
	if err != nil {
		return nil, apierr.Internal("sign failed")
	}
	refresh, expiresAt, err := s.codec.SignRefresh(authUser, newJTI, claims.FamilyID, deviceID)
	if err != nil {
		return nil, apierr.Internal("sign failed")
	}

	newSession := &sessions.RefreshSession{
		JTI:       newJTI,
		UserID:    authUser.ID,
		FamilyID:  claims.FamilyID,
		DeviceID:  deviceID,
		ExpiresAt: expiresAt,
		CreatedAt: s.now().UTC(),
	}
	if err := s.sessions.Create(ctx, newSession); err != nil {
		return nil, apierr.Internal("session create failed")
	}

	s.record(ctx, audit.Event{
		Type:     EventRefreshSuccess,
		UserID:   authUser.ID,
		Email:    audit.MaskEmail(authUser.Email),
		Role:     string(authUser.Role),
		FamilyID: claims.FamilyID,
		DeviceID: deviceID,
	})
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// validateSession decides whether the presented token may rotate. It returns
// the audit reason for rejection plus, when the whole family must be
// revoked, the revocation reason to apply. Empty reason means the session is
// live and may proceed.
//
// The live row must agree with the token's claims on user, family, and
// device, and the token's device must match the one the caller presented.
// All four comparisons are strict equality; an empty string on either side
// is just another value that must match.
func (s *Service) validateSession(claims *tokens.RefreshClaims, session *sessions.RefreshSession, deviceID string) (string, sessions.RevokeReason) {
	if session == nil {
		return "session_not_found", ""
	}
	if session.Expired(s.now().UTC()) {
		return "session_expired", ""
	}
	if session.Revoked() {
		if session.RevokedReason == sessions.ReasonRotated {
			// Replay of a consumed token: the family is compromised.
			return "reuse_detected", sessions.ReasonReuseDetected
		}
		return "session_revoked", ""
	}
	if session.UserID != claims.User.ID ||
		session.FamilyID != claims.FamilyID ||
		session.DeviceID != claims.DeviceID {
		return "claims_mismatch", sessions.ReasonSecurityEvent
	}
	if claims.DeviceID != deviceID {
		return "device_mismatch", sessions.ReasonSecurityEvent
	}
	return "", ""
}
