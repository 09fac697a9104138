package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tasklight/tasklight/internal/apierr"
	"github.com/tasklight/tasklight/internal/audit"
	"github.com/tasklight/tasklight/internal/models"
	"github.com/tasklight/tasklight/internal/password"
	"github.com/tasklight/tasklight/internal/sessions"
	"github.com/tasklight/tasklight/internal/tokens"
	"github.com/tasklight/tasklight/internal/users"
)

// Audit event types emitted by the service.
const (
	EventRegisterSuccess  = "auth_register_success"
	EventRegisterConflict = "auth_register_conflict"
	EventLoginSuccess     = "auth_login_success"
	EventLoginFailed      = "auth_login_failed"
	EventRefreshSuccess   = "auth_refresh_success"
	EventRefreshFailed    = "auth_refresh_failed"
	EventRefreshReuse     = "auth_refresh_reuse_detected"
	EventLogoutSuccess    = "auth_logout_success"
	EventLogoutFailed     = "auth_logout_failed"
)

// TokenPair is the access/refresh pair returned by every successful
// register, login, and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service orchestrates registration, login, token rotation, and logout over
// the user and session repositories. All failure paths on login and refresh
// collapse to a uniform Unauthorized externally while the audit sink records
// the distinct internal reason.
type Service struct {
	users    users.Repository
	sessions sessions.Repository
	codec    *tokens.Codec
	audit    audit.Sink
	now      func() time.Time
}

func NewService(userRepo users.Repository, sessionRepo sessions.Repository, codec *tokens.Codec, sink audit.Sink) *Service {
	if sink == nil {
		sink = audit.NoOpSink{}
	}
	return &Service{
		users:    userRepo,
		sessions: sessionRepo,
		codec:    codec,
		audit:    sink,
		now:      time.Now,
	}
}

// Register creates an account and returns the user plus a fresh token pair
// rooted in a new session family. The role is supplied by trusted callers
// only (the public endpoint always passes RoleUser; elevated roles come from
// provisioning paths); this is the single place an unknown role falls back
// to RoleUser.
func (s *Service) Register(ctx context.Context, email, plainPassword string, role models.Role, deviceID string) (*models.AuthUser, *TokenPair, error) {
	email = users.NormalizeEmail(email)
	if !role.Valid() {
		role = models.RoleUser
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, apierr.Internal("lookup failed")
	}
	if existing != nil {
		s.record(ctx, audit.Event{Type: EventRegisterConflict, Email: audit.MaskEmail(email)})
		return nil, nil, apierr.Conflict("email already registered")
	}

	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, nil, apierr.Internal("hash failed")
	}

	id, err := s.users.Create(ctx, email, hash, role)
	if err != nil {
		return nil, nil, apierr.Internal("create failed")
	}

	u, err := s.users.FindByID(ctx, id)
	if err != nil || u == nil {
		return nil, nil, apierr.Internal("lookup failed")
	}
	authUser := u.Auth()

	pair, err := s.issueTokenPair(ctx, authUser, uuid.NewString(), deviceID)
	if err != nil {
		return nil, nil, err
	}

	s.record(ctx, audit.Event{
		Type:     EventRegisterSuccess,
		UserID:   authUser.ID,
		Email:    audit.MaskEmail(authUser.Email),
		Role:     string(authUser.Role),
		DeviceID: deviceID,
	})
	return &authUser, pair, nil
}

// Login verifies credentials and starts a new session family. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, plainPassword, deviceID string) (*models.AuthUser, *TokenPair, error) {
	email = users.NormalizeEmail(email)

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, apierr.Internal("lookup failed")
	}
	if u == nil {
		s.record(ctx, audit.Event{Type: EventLoginFailed, Email: audit.MaskEmail(email), Reason: "user_not_found"})
		return nil, nil, apierr.Unauthorized("invalid credentials")
	}
	if !password.Verify(plainPassword, u.PasswordHash) {
		s.record(ctx, audit.Event{Type: EventLoginFailed, UserID: u.ID, Email: audit.MaskEmail(email), Reason: "bad_password"})
		return nil, nil, apierr.Unauthorized("invalid credentials")
	}

	authUser := u.Auth()
	pair, err := s.issueTokenPair(ctx, authUser, uuid.NewString(), deviceID)
	if err != nil {
		return nil, nil, err
	}

	s.record(ctx, audit.Event{
		Type:     EventLoginSuccess,
		UserID:   authUser.ID,
		Email:    audit.MaskEmail(authUser.Email),
		Role:     string(authUser.Role),
		DeviceID: deviceID,
	})
	return &authUser, pair, nil
}

// Logout revokes the whole session family behind the presented refresh
// token. Invalid tokens and device mismatches fail with the same
// Unauthorized the refresh path uses.
func (s *Service) Logout(ctx context.Context, refreshToken, deviceID string) error {
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		s.record(ctx, audit.Event{Type: EventLogoutFailed, Reason: "invalid_token"})
		return apierr.Unauthorized("invalid refresh token")
	}

	if claims.DeviceID != deviceID {
		s.record(ctx, audit.Event{
			Type:     EventLogoutFailed,
			UserID:   claims.User.ID,
			FamilyID: claims.FamilyID,
			DeviceID: deviceID,
			Reason:   "device_mismatch",
		})
		return apierr.Unauthorized("invalid refresh token")
	}

	if err := s.sessions.RevokeFamily(ctx, claims.FamilyID, sessions.ReasonLogout); err != nil {
		return apierr.Internal("revoke failed")
	}

	s.record(ctx, audit.Event{
		Type:     EventLogoutSuccess,
		UserID:   claims.User.ID,
		Email:    audit.MaskEmail(claims.User.Email),
		FamilyID: claims.FamilyID,
		DeviceID: claims.DeviceID,
	})
	return nil
}

// Me resolves the current account for an authenticated user id.
func (s *Service) Me(ctx context.Context, userID int64) (*models.AuthUser, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apierr.Internal("lookup failed")
	}
	if u == nil {
		return nil, apierr.NotFound("user not found")
	}
	authUser := u.Auth()
	return &authUser, nil
}

// issueTokenPair signs an access/refresh pair and persists the refresh
// session row under the given family.
func (s *Service) issueTokenPair(ctx context.Context, u models.AuthUser, familyID, deviceID string) (*TokenPair, error) {
	access, err := s.codec.SignAccess(u)
	if err != nil {
		return nil, apierr.Internal("sign failed")
	}

	jti := uuid.NewString()
	refresh, expiresAt, err := s.codec.SignRefresh(u, jti, familyID, deviceID)
	if err != nil {
		return nil, apierr.Internal("sign failed")
	}

	session := &sessions.RefreshSession{
		JTI:       jti,
		UserID:    u.ID,
		FamilyID:  familyID,
		DeviceID:  deviceID,
		ExpiresAt: expiresAt,
		CreatedAt: s.now().UTC(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, apierr.Internal("session create failed")
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) record(ctx context.Context, e audit.Event) {
	e.Timestamp = s.now().UTC()
	s.audit.Record(ctx, e)
}
