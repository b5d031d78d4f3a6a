package services

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "tillpoint/internal/errors"
	"tillpoint/internal/events"
	"tillpoint/internal/logger"
	"tillpoint/internal/models"
	"tillpoint/internal/password"
	"tillpoint/internal/ratelimit"
	"tillpoint/internal/storage"
	"tillpoint/internal/store"
	"tillpoint/internal/token"
)

// Registration defaults for the tenant and branch rows.
const (
	defaultBusinessType = "Retail Store"
	defaultAddress      = "Default Address"
	defaultBranchName   = "Main Branch"
)

// dummyPassword is hashed once and compared against when no user matches an
// identifier, so unknown identities cost the same as wrong passwords.
const dummyPassword = "tillpoint-timing-equalizer"

// SessionDeps are the collaborators of a SessionManager. Audit and Events are
// optional. SwitchLedger defaults to a ledger over Local under the
// switch_attempts: prefix.
type SessionDeps struct {
	Store        store.Store
	Local        storage.KV
	Hasher       *password.Hasher
	Tokens       *token.Service
	Ledger       *ratelimit.Ledger
	SwitchLedger *ratelimit.Ledger
	Audit        AuditServicer
	Events       events.Publisher
	Now          func() time.Time
}

// SessionManager owns the terminal's session. Login, Register, SwitchUser,
// RestoreSession and RefreshUser are single-flight: a call made while another
// is running is rejected with ErrOperationInProgress. Logout waits for the
// running operation instead.
type SessionManager struct {
	store  store.Store
	local  storage.KV
	hasher *password.Hasher
	tokens *token.Service
	ledger *ratelimit.Ledger
	audit  AuditServicer
	events events.Publisher
	now    func() time.Time
	log    *zap.SugaredLogger

	switchLedger *ratelimit.Ledger

	op sync.Mutex

	mu      sync.RWMutex
	session *Session

	dummyOnce sync.Once
	dummyHash string
}

var _ SessionServicer = (*SessionManager)(nil)

// NewSessionManager creates a SessionManager in the Unauthenticated state.
// Call RestoreSession to pick up a persisted session.
func NewSessionManager(deps SessionDeps) *SessionManager {
	m := &SessionManager{
		store:  deps.Store,
		local:  deps.Local,
		hasher: deps.Hasher,
		tokens: deps.Tokens,
		ledger: deps.Ledger,
		audit:  deps.Audit,
		events: deps.Events,
		now:    deps.Now,
		log:    logger.Named("session"),

		switchLedger: deps.SwitchLedger,
	}
	if m.audit == nil {
		m.audit = nopAudit{}
	}
	if m.events == nil {
		m.events = events.NewLogPublisher()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.hasher == nil {
		m.hasher = password.NewHasher(password.DefaultCost)
	}
	if m.switchLedger == nil {
		m.switchLedger = ratelimit.New(m.local, 0, 0,
			ratelimit.WithPrefix(storage.KeySwitchAttemptsPrefix), ratelimit.WithClock(m.now))
	}
	return m
}

// Current returns a copy of the session, or nil when unauthenticated.
func (m *SessionManager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil
	}
	s := *m.session
	u := *s.User
	s.User = &u
	return &s
}

// CurrentUser returns the signed-in user's snapshot, or nil.
func (m *SessionManager) CurrentUser() *models.Snapshot {
	if s := m.Current(); s != nil {
		return s.User
	}
	return nil
}

// Token returns the current session token, or "".
func (m *SessionManager) Token() string {
	if s := m.Current(); s != nil {
		return s.Token
	}
	return ""
}

// IsAuthenticated reports whether a user is signed in.
func (m *SessionManager) IsAuthenticated() bool {
	return m.Current() != nil
}

// RestoreSession picks up the persisted session at startup. A token is
// verified and its user re-read from the store; a missing, inactive or
// unapproved user discards all persisted material. Without a token, the
// pre-token user snapshot is accepted once it has been re-validated against
// the store, and a token is issued for it. A nil Session with a nil error
// means Unauthenticated.
func (m *SessionManager) RestoreSession(ctx context.Context) (*Session, error) {
	if !m.op.TryLock() {
		return nil, apperrors.ErrOperationInProgress
	}
	defer m.op.Unlock()

	raw, err := m.local.Get(ctx, storage.KeyToken)
	switch {
	case err == nil && raw != "":
		return m.restoreFromToken(ctx, raw)
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		m.log.Errorw("Failed to read persisted token", "error", err)
		return nil, nil
	}

	return m.restoreFromSnapshot(ctx)
}

func (m *SessionManager) restoreFromToken(ctx context.Context, raw string) (*Session, error) {
	claims := m.tokens.Verify(raw)
	if claims == nil {
		m.log.Infow("Persisted session token is no longer valid")
		m.clear(ctx)
		return nil, nil
	}

	user, err := m.loadSessionUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		m.clear(ctx)
		return nil, nil
	}

	s := &Session{User: user.Snapshot(), Token: raw, ExpiresAt: claims.ExpiresAt.Time}
	m.setSession(ctx, s)
	m.audit.Log(ctx, AuditEntry{UserID: user.ID, BusinessID: user.BusinessID, Action: AuditSessionRestored})
	return s, nil
}

func (m *SessionManager) restoreFromSnapshot(ctx context.Context) (*Session, error) {
	raw, err := m.local.Get(ctx, storage.KeySnapshot)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.log.Errorw("Failed to read persisted user snapshot", "error", err)
		}
		return nil, nil
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil || snap.UserID == 0 {
		m.log.Warnw("Discarding unreadable user snapshot")
		m.clear(ctx)
		return nil, nil
	}

	user, err := m.loadSessionUser(ctx, snap.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		m.clear(ctx)
		return nil, nil
	}

	s, err := m.issue(user)
	if err != nil {
		return nil, err
	}
	m.setSession(ctx, s)
	m.audit.Log(ctx, AuditEntry{UserID: user.ID, BusinessID: user.BusinessID, Action: AuditSessionRestored,
		Details: map[string]any{"source": "snapshot"}})
	return s, nil
}

// loadSessionUser re-reads a user for an existing session. It returns nil
// when the user may no longer hold a session, and an error only for store
// failures, which leave persisted material alone so a retry can succeed.
func (m *SessionManager) loadSessionUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := m.store.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		m.log.Infow("Session user no longer exists", "user_id", userID)
		return nil, nil
	}
	if err != nil {
		m.log.Errorw("Failed to load session user", "user_id", userID, "error", err)
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !user.Active || user.AwaitingApproval() {
		m.log.Infow("Session user may not sign in", "user_id", userID, "active", user.Active)
		return nil, nil
	}
	return user, nil
}

// Register creates a tenant, its default branch and its owner. Owners start
// outside the private preview, so no session is created.
func (m *SessionManager) Register(ctx context.Context, in RegisterInput) (*models.Snapshot, error) {
	if !m.op.TryLock() {
		return nil, apperrors.ErrOperationInProgress
	}
	defer m.op.Unlock()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.BusinessName = strings.TrimSpace(in.BusinessName)

	if res := password.Validate(in.Password); !res.IsValid {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, res.Errors[0])
	}
	if err := password.ValidateUsername(in.Username); err != nil {
		return nil, err
	}
	if in.Email != "" {
		if err := password.ValidateEmail(in.Email); err != nil {
			return nil, err
		}
	}
	if in.BusinessName == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Business name is required")
	}

	if in.Email != "" {
		exists, err := m.store.EmailExists(ctx, in.Email)
		if err != nil {
			m.log.Errorw("Failed to check email", "error", err)
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if exists {
			return nil, apperrors.ErrDuplicateEmail
		}
	}

	hash, err := m.hasher.Hash(in.Password)
	if err != nil {
		m.log.Errorw("Failed to hash password", "error", err)
		return nil, err
	}

	business := &models.Business{
		Name:         in.BusinessName,
		BusinessName: in.BusinessName,
		BusinessType: firstNonEmpty(in.BusinessType, defaultBusinessType),
		Address:      firstNonEmpty(in.Address, defaultAddress),
		PhoneNumber:  in.PhoneNumber,
	}
	if err := m.store.CreateBusiness(ctx, business); err != nil {
		m.log.Errorw("Failed to create business", "error", err)
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	branch := &models.Branch{
		BusinessID: business.ID,
		BranchName: defaultBranchName,
		Address:    business.Address,
		Active:     true,
	}
	if err := m.store.CreateBranch(ctx, branch); err != nil {
		m.log.Warnw("Failed to create default branch", "business_id", business.ID, "error", err)
	}

	user := &models.User{
		Username:       in.Username,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		PasswordHash:   hash,
		Role:           models.RoleOwner,
		Active:         true,
		BusinessID:     &business.ID,
		PrivatePreview: false,
	}
	if in.Email != "" {
		user.Email = &in.Email
	}
	if err := m.store.CreateUser(ctx, user); err != nil {
		m.log.Errorw("Failed to create owner", "business_id", business.ID, "error", err)
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	m.audit.Log(ctx, AuditEntry{UserID: user.ID, BusinessID: user.BusinessID, Action: AuditUserRegistered,
		Details: map[string]any{"business_name": business.Name}})
	m.publish(ctx, events.New(events.TypeRegistrationPending, user.ID, user.Username, user.BusinessID))

	return user.Snapshot(), nil
}

// Login authenticates identifier (email or username) with password. Every
// gate runs before anything is written: rate limit, lookup, credential check,
// then the pending-approval gate. Unknown identities and wrong passwords get
// the same error.
func (m *SessionManager) Login(ctx context.Context, identifier, plaintext string) (*Session, error) {
	if !m.op.TryLock() {
		return nil, apperrors.ErrOperationInProgress
	}
	defer m.op.Unlock()

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || plaintext == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Username and password are required")
	}

	if !m.ledger.Allow(ctx, identifier) {
		m.log.Warnw("Login rate limited")
		m.audit.Log(ctx, AuditEntry{Action: AuditLoginRateLimited})
		return nil, apperrors.ErrRateLimited
	}

	candidates, err := m.store.FindActiveUsersByIdentifier(ctx, identifier)
	if err != nil {
		m.log.Errorw("Failed to look up login candidates", "error", err)
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user, legacy := m.matchPassword(candidates, plaintext)
	if user == nil {
		m.recordLoginFailure(ctx, identifier, candidates)
		m.audit.Log(ctx, AuditEntry{Action: AuditLoginFailed})
		return nil, apperrors.ErrInvalidCredentials
	}

	if user.AwaitingApproval() {
		m.recordLoginFailure(ctx, identifier, candidates)
		m.audit.Log(ctx, AuditEntry{UserID: user.ID, BusinessID: user.BusinessID, Action: AuditLoginPending})
		return nil, apperrors.ErrPendingApproval
	}

	if legacy {
		m.migratePassword(ctx, user, plaintext)
	}

	for _, identity := range ledgerIdentities(identifier, []models.User{*user}) {
		m.ledger.Reset(ctx, identity)
	}

	s, err := m.issue(user)
	if err != nil {
		return nil, err
	}

	m.touch(ctx, user)
	s.User = user.Snapshot()
	m.setSession(ctx, s)
	m.audit.Log(ctx, AuditEntry{UserID: user.ID, BusinessID: user.BusinessID, Action: AuditLoginSucceeded})
	return s, nil
}

// recordLoginFailure charges a failure to the identifier as typed and to
// every name of the accounts it matched, so an account's username and email
// share one budget.
func (m *SessionManager) recordLoginFailure(ctx context.Context, identifier string, candidates []models.User) {
	for _, identity := range ledgerIdentities(identifier, candidates) {
		m.ledger.RecordFailure(ctx, identity)
	}
}

// ledgerIdentities lists identifier and the usernames and emails of users,
// lower-cased and without duplicates.
func ledgerIdentities(identifier string, users []models.User) []string {
	seen := make(map[string]bool, 1+2*len(users))
	var out []string
	add := func(name string) {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}

	add(identifier)
	for i := range users {
		add(users[i].Username)
		if users[i].Email != nil {
			add(*users[i].Email)
		}
	}
	return out
}

// matchPassword returns the first candidate, in id order, whose password
// verifies. legacy is true when the stored hash was the deprecated digest.
func (m *SessionManager) matchPassword(candidates []models.User, plaintext string) (*models.User, bool) {
	if len(candidates) == 0 {
		m.hasher.Verify(plaintext, m.dummy())
		return nil, false
	}
	for i := range candidates {
		switch m.hasher.Verify(plaintext, candidates[i].PasswordHash) {
		case password.Valid:
			return &candidates[i], false
		case password.UnrecognizedFormat:
			if password.MatchesLegacy(plaintext, candidates[i].PasswordHash) {
				return &candidates[i], true
			}
		}
	}
	return nil, false
}

func (m *SessionManager) dummy() string {
	m.dummyOnce.Do(func() {
		hash, err := m.hasher.Hash(dummyPassword)
		if err != nil {
			m.log.Errorw("Failed to prepare timing hash", "error", err)
		}
		m.dummyHash = hash
	})
	return m.dummyHash
}

// migratePassword rewrites a legacy digest as a bcrypt hash. Failure is
// logged and does not fail the login.
func (m *SessionManager) migratePassword(ctx context.Context, user *models.User, plaintext string) {
	hash, err := m.hasher.Hash(plaintext)
	if err != nil {
		m.log.Errorw("Failed to hash password for migration", "user_id", user.ID, "error", err)
		return
	}
	if err := m.store.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		m.log.Errorw("Failed to migrate legacy password hash", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
	m.log.Infow("Migrated legacy password hash", "user_id", user.ID)
	m.audit.Log(ctx, AuditEntry{UserID: user.ID, BusinessID: user.BusinessID, Action: AuditCredentialMigrated,
		Details: map[string]any{"credential": "password"}})
}

// SwitchUser re-authenticates the terminal as another user of the same tenant
// with their PIN or password. On failure the current session is unchanged.
// Failures are counted per target user; once a target's window is full its
// switches are refused until the window slides.
func (m *SessionManager) SwitchUser(ctx context.Context, targetUserID uint, credential string, usePIN bool) bool {
	if !m.op.TryLock() {
		m.log.Warnw("Switch user rejected: another operation is in progress", "target_user_id", targetUserID)
		return false
	}
	defer m.op.Unlock()

	current := m.Current()
	if current == nil || credential == "" {
		return false
	}

	targetKey := strconv.FormatUint(uint64(targetUserID), 10)
	if !m.switchLedger.Allow(ctx, targetKey) {
		m.log.Warnw("Switch user rate limited", "target_user_id", targetUserID)
		m.audit.Log(ctx, AuditEntry{UserID: current.User.UserID, BusinessID: current.User.BusinessID, Action: AuditSwitchRateLimited,
			Details: map[string]any{"target_user_id": targetUserID}})
		return false
	}

	target, err := m.store.GetUserByID(ctx, targetUserID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.log.Errorw("Failed to load switch target", "target_user_id", targetUserID, "error", err)
		}
		return false
	}
	if !target.Active || target.AwaitingApproval() || !sameTenant(current.User.BusinessID, target.BusinessID) {
		m.switchFailed(ctx, current, targetUserID, usePIN)
		return false
	}

	var ok bool
	if usePIN {
		ok = password.ValidatePIN(credential) == nil && m.verifyPIN(ctx, target, credential)
	} else {
		ok = m.verifyPassword(target.PasswordHash, credential)
	}
	if !ok {
		m.switchFailed(ctx, current, targetUserID, usePIN)
		return false
	}

	s, err := m.issue(target)
	if err != nil {
		return false
	}
	m.switchLedger.Reset(ctx, targetKey)
	m.touch(ctx, target)
	s.User = target.Snapshot()
	m.setSession(ctx, s)
	m.audit.Log(ctx, AuditEntry{UserID: target.ID, BusinessID: target.BusinessID, Action: AuditSessionSwitched,
		Details: map[string]any{"from_user_id": current.User.UserID, "pin": usePIN}})
	return true
}

func (m *SessionManager) switchFailed(ctx context.Context, current *Session, targetUserID uint, usePIN bool) {
	m.switchLedger.RecordFailure(ctx, strconv.FormatUint(uint64(targetUserID), 10))
	m.audit.Log(ctx, AuditEntry{UserID: current.User.UserID, BusinessID: current.User.BusinessID, Action: AuditSwitchFailed,
		Details: map[string]any{"target_user_id": targetUserID, "pin": usePIN}})
}

// sameTenant allows any target when the current session has no tenant.
func sameTenant(current, target *uint) bool {
	if current == nil {
		return true
	}
	return target != nil && *target == *current
}

// verifyPIN checks the bcrypt PIN hash first, then the deprecated plaintext
// PIN, which is migrated to a hash on a match.
func (m *SessionManager) verifyPIN(ctx context.Context, user *models.User, pin string) bool {
	if user.PINHash != nil && *user.PINHash != "" {
		switch m.hasher.Verify(pin, *user.PINHash) {
		case password.Valid:
			return true
		case password.Invalid:
			return false
		}
	}

	if user.PIN == nil || *user.PIN == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(pin), []byte(*user.PIN)) != 1 {
		return false
	}

	hash, err := m.hasher.Hash(pin)
	if err != nil {
		m.log.Errorw("Failed to hash PIN for migration", "user_id", user.ID, "error", err)
		return true
	}
	if err := m.store.UpdatePINHash(ctx, user.ID, hash); err != nil {
		m.log.Errorw("Failed to migrate legacy PIN", "user_id", user.ID, "error", err)
		return true
	}
	user.PINHash = &hash
	user.PIN = nil
	m.log.Infow("Migrated legacy PIN", "user_id", user.ID)
	m.audit.Log(ctx, AuditEntry{UserID: user.ID, BusinessID: user.BusinessID, Action: AuditCredentialMigrated,
		Details: map[string]any{"credential": "pin"}})
	return true
}

func (m *SessionManager) verifyPassword(hash, plaintext string) bool {
	switch m.hasher.Verify(plaintext, hash) {
	case password.Valid:
		return true
	case password.UnrecognizedFormat:
		return password.MatchesLegacy(plaintext, hash)
	default:
		return false
	}
}

// RefreshUser re-reads the signed-in user so profile edits show up. A user
// that has disappeared or been deactivated ends the session.
func (m *SessionManager) RefreshUser(ctx context.Context) (*Session, error) {
	if !m.op.TryLock() {
		return nil, apperrors.ErrOperationInProgress
	}
	defer m.op.Unlock()

	current := m.Current()
	if current == nil {
		return nil, apperrors.ErrUnauthorized
	}

	user, err := m.loadSessionUser(ctx, current.User.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		m.clear(ctx)
		return nil, apperrors.ErrUnauthorized
	}

	current.User = user.Snapshot()
	m.setSession(ctx, current)
	return current, nil
}

// Logout ends the session locally. Issued tokens stay valid until they
// expire; there is no server-side revocation.
func (m *SessionManager) Logout(ctx context.Context) {
	m.op.Lock()
	defer m.op.Unlock()

	current := m.Current()
	m.clear(ctx)
	if current != nil {
		m.audit.Log(ctx, AuditEntry{UserID: current.User.UserID, BusinessID: current.User.BusinessID, Action: AuditSessionLogout})
	}
}

// ListSwitchCandidates returns the users the terminal can switch to: active,
// approved members of the current tenant.
func (m *SessionManager) ListSwitchCandidates(ctx context.Context) ([]models.Snapshot, error) {
	current := m.Current()
	if current == nil {
		return nil, apperrors.ErrUnauthorized
	}
	if current.User.BusinessID == nil {
		return []models.Snapshot{}, nil
	}

	users, err := m.store.ListActiveUsersByBusiness(ctx, *current.User.BusinessID)
	if err != nil {
		m.log.Errorw("Failed to list switch candidates", "business_id", *current.User.BusinessID, "error", err)
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	out := make([]models.Snapshot, 0, len(users))
	for i := range users {
		if users[i].AwaitingApproval() {
			continue
		}
		out = append(out, *users[i].Snapshot())
	}
	return out, nil
}

// issue signs a token for user without touching any state.
func (m *SessionManager) issue(user *models.User) (*Session, error) {
	signed, claims, err := m.tokens.Issue(token.Identity{
		UserID:     user.ID,
		Username:   user.Username,
		Role:       user.Role,
		BusinessID: user.BusinessID,
	})
	if err != nil {
		m.log.Errorw("Failed to issue session token", "user_id", user.ID, "error", err)
		return nil, err
	}
	return &Session{
		User:      user.Snapshot(),
		Token:     signed,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// touch records last use. Failure is logged only.
func (m *SessionManager) touch(ctx context.Context, user *models.User) {
	now := m.now()
	if err := m.store.TouchLastUsed(ctx, user.ID, now); err != nil {
		m.log.Warnw("Failed to update last used", "user_id", user.ID, "error", err)
		return
	}
	user.LastUsedAt = &now
}

// setSession replaces the in-memory session and persists token and snapshot.
func (m *SessionManager) setSession(ctx context.Context, s *Session) {
	stored := *s
	user := *s.User
	stored.User = &user

	m.mu.Lock()
	m.session = &stored
	m.mu.Unlock()

	if err := m.local.Set(ctx, storage.KeyToken, s.Token); err != nil {
		m.log.Errorw("Failed to persist session token", "user_id", s.User.UserID, "error", err)
	}
	raw, err := json.Marshal(s.User)
	if err != nil {
		m.log.Errorw("Failed to encode user snapshot", "user_id", s.User.UserID, "error", err)
		return
	}
	if err := m.local.Set(ctx, storage.KeySnapshot, string(raw)); err != nil {
		m.log.Errorw("Failed to persist user snapshot", "user_id", s.User.UserID, "error", err)
	}
}

// clear drops the in-memory session and all persisted session material.
func (m *SessionManager) clear(ctx context.Context) {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()

	if err := m.local.Delete(ctx, storage.KeyToken, storage.KeySnapshot); err != nil {
		m.log.Errorw("Failed to clear persisted session", "error", err)
	}
}

func (m *SessionManager) publish(ctx context.Context, event events.Event) {
	if err := m.events.Publish(ctx, event); err != nil {
		m.log.Warnw("Failed to publish event", "type", event.Type, "user_id", event.UserID, "error", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
