package sessions

import "time"

// RevokeReason records why a refresh session was terminated.
type RevokeReason string

const (
	ReasonRotated       RevokeReason = "rotated"
	ReasonLogout        RevokeReason = "logout"
	ReasonReuseDetected RevokeReason = "reuse_detected"
	ReasonSecurityEvent RevokeReason = "security_event"
)

// RefreshSession is the durable record behind one issued refresh token.
// Rows are created at issuance and only ever mutated to set the revocation
// fields; they are never deleted by the normal flow. A session revoked with
// ReasonRotated always carries ReplacedByJTI (the successor token), which is
// how a replayed, already-rotated token is told apart from one retired by
// logout.
type RefreshSession struct {
	JTI           string       `bson:"_id" json:"jti"`
	UserID        int64        `bson:"userId" json:"userId"`
	FamilyID      string       `bson:"familyId" json:"familyId"`
	DeviceID      string       `bson:"deviceId" json:"deviceId"`
	ExpiresAt     time.Time    `bson:"expiresAt" json:"expiresAt"`
	RevokedAt     *time.Time   `bson:"revokedAt,omitempty" json:"revokedAt,omitempty"`
	RevokedReason RevokeReason `bson:"revokedReason,omitempty" json:"revokedReason,omitempty"`
	ReplacedByJTI string       `bson:"replacedByJti,omitempty" json:"replacedByJti,omitempty"`
	CreatedAt     time.Time    `bson:"createdAt" json:"createdAt"`
}

// Expired reports whether the session's lifetime has elapsed at the given
// instant. Expiry is derived from time, not a stored flag.
func (s *RefreshSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Revoked reports whether the session has been terminated.
func (s *RefreshSession) Revoked() bool {
	return s.RevokedAt != nil
}
