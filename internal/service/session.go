package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
	"github.com/socialadify/adify-console/internal/observability/metrics"
	"github.com/socialadify/adify-console/internal/observability/statsd"
	"github.com/socialadify/adify-console/internal/ports"
)

// msgStorageUnavailable is shown when a login succeeded remotely but the token could not be saved.
const msgStorageUnavailable = "Unable to save your session on this device."

// SessionConfig holds navigation targets and optional instrumentation for SessionStore.
type SessionConfig struct {
	LoginPath  string
	HomePath   string
	SignupPath string

	Logger  *slog.Logger
	Metrics statsd.Sink
	// Now overrides the clock used for token expiry checks.
	Now func() time.Time
}

// SessionStoreOptions groups dependencies for SessionStore.
type SessionStoreOptions struct {
	Gateway ports.AuthGateway // Required
	Tokens  *TokenStore       // Required
	Config  SessionConfig
}

// SessionStore is the single owner of the console's authentication state.
//
// All state and TokenStore writes happen under mu; gateway calls never do.
// generation is captured before each gateway call and compared afterwards,
// so a response that arrives after a logout, a newer login or a cleanup is dropped.
type SessionStore struct {
	gateway ports.AuthGateway
	tokens  *TokenStore
	cfg     SessionConfig
	logger  *slog.Logger

	mu         sync.Mutex
	token      domainauth.Token
	user       *domainauth.User
	state      domainauth.State
	ready      bool
	loading    bool
	err        *domainauth.Error
	version    uint64
	generation uint64

	hydrateStarted bool
	readyCh        chan struct{}

	refreshes singleflight.Group
}

// NewSessionStore constructs a SessionStore in the uninitialized state.
func NewSessionStore(opts SessionStoreOptions) *SessionStore {
	if opts.Gateway == nil {
		panic("SessionStore requires an AuthGateway")
	}
	if opts.Tokens == nil {
		panic("SessionStore requires a TokenStore")
	}
	cfg := opts.Config
	if cfg.LoginPath == "" {
		cfg.LoginPath = opts.Tokens.LoginPath()
	}
	if cfg.HomePath == "" {
		cfg.HomePath = "/home"
	}
	if cfg.SignupPath == "" {
		cfg.SignupPath = "/signup"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		gateway: opts.Gateway,
		tokens:  opts.Tokens,
		cfg:     cfg,
		logger:  logger.With("component", "session_store"),
		state:   domainauth.StateUninitialized,
		readyCh: make(chan struct{}),
	}
}

// Snapshot returns an immutable copy of the current session.
func (s *SessionStore) Snapshot() domainauth.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *SessionStore) snapshotLocked() domainauth.Session {
	var user *domainauth.User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return domainauth.Session{
		Token:     s.token,
		User:      user,
		State:     s.state,
		IsReady:   s.ready,
		IsLoading: s.loading,
		Err:       s.err,
		Version:   s.version,
	}
}

// Ready is closed once the initial authentication status is known.
func (s *SessionStore) Ready() <-chan struct{} {
	return s.readyCh
}

// LoginPath is where unauthenticated visitors are sent.
func (s *SessionStore) LoginPath() string { return s.cfg.LoginPath }

// HomePath is the default post-login landing page.
func (s *SessionStore) HomePath() string { return s.cfg.HomePath }

// Hydrate restores the session from durable storage. Only the first call does any
// work; later or concurrent calls wait for readiness or ctx.
func (s *SessionStore) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	if s.hydrateStarted {
		s.mu.Unlock()
		select {
		case <-s.readyCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.hydrateStarted = true
	s.state = domainauth.StateHydrating
	s.bumpLocked()
	gen := s.generation
	s.mu.Unlock()

	start := time.Now()
	tok := s.tokens.Token(ctx)
	if tok == "" {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen == s.generation {
			s.state = domainauth.StateUnauthenticated
		}
		s.settleLocked()
		s.emit(metrics.OpHydrate, metrics.ResultNoop, time.Since(start), nil)
		return nil
	}

	var (
		user     domainauth.User
		fetchErr error
	)
	if tokenExpired(tok, s.cfg.Now()) {
		fetchErr = domainauth.NewError(domainauth.KindUnauthorized, domainauth.MsgSessionExpired)
	} else {
		user, fetchErr = s.gateway.FetchCurrentUser(ctx, tok)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.settleLocked()

	if gen != s.generation {
		s.logger.DebugContext(ctx, "discarding hydrate result; session changed meanwhile")
		s.emit(metrics.OpHydrate, metrics.ResultDiscarded, time.Since(start), nil)
		return nil
	}

	if fetchErr != nil {
		if ctx.Err() != nil {
			// Shutdown is not a verdict on the token; keep it for the next start.
			s.state = domainauth.StateUnauthenticated
			s.bumpLocked()
			return ctx.Err()
		}
		authErr := domainauth.AsError(fetchErr)
		s.logger.InfoContext(ctx, "stored session rejected", "error_kind", authErr.Kind)
		s.invalidateLocked(ctx)
		s.state = domainauth.StateUnauthenticated
		s.err = authErr
		s.bumpLocked()
		s.emit(metrics.OpHydrate, metrics.ResultError, time.Since(start), authErr)
		return nil
	}

	s.token = tok
	s.user = &user
	s.state = domainauth.StateAuthenticated
	s.err = nil
	s.bumpLocked()
	s.emit(metrics.OpHydrate, metrics.ResultSuccess, time.Since(start), nil)
	return nil
}

// Login exchanges credentials for a token, fetches the user and persists both.
// It returns where the caller should navigate next: the pending redirect target
// or the home page.
func (s *SessionStore) Login(ctx context.Context, email, password string) (string, error) {
	creds := domainauth.Credentials{Email: strings.TrimSpace(email), Password: password}
	if err := creds.Validate(); err != nil {
		s.setError(domainauth.AsError(err))
		return "", err
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return "", domainauth.ErrBusy
	}
	s.loading = true
	s.err = nil
	s.state = domainauth.StateAuthenticating
	s.generation++
	gen := s.generation
	s.bumpLocked()
	s.mu.Unlock()

	start := time.Now()
	tok, err := s.gateway.Login(ctx, creds)
	var user domainauth.User
	if err == nil {
		user, err = s.gateway.FetchCurrentUser(ctx, tok)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.bumpLocked()

	// A logout already released the busy flag; a newer login may own it now.
	if gen != s.generation {
		s.emit(metrics.OpLogin, metrics.ResultDiscarded, time.Since(start), nil)
		return "", domainauth.ErrStaleResponse
	}
	s.loading = false

	if err != nil {
		authErr := domainauth.AsError(err)
		if authErr.Kind == domainauth.KindUnauthorized {
			s.invalidateLocked(ctx)
		} else {
			// A failed attempt keeps the pending redirect target for the retry.
			s.dropCredentialsLocked(ctx)
		}
		s.state = domainauth.StateUnauthenticated
		s.err = authErr
		s.emit(metrics.OpLogin, metrics.ResultError, time.Since(start), authErr)
		return "", authErr
	}

	if storeErr := s.tokens.SetToken(ctx, tok); storeErr != nil {
		s.dropCredentialsLocked(ctx)
		s.state = domainauth.StateUnauthenticated
		s.err = domainauth.Wrap(domainauth.KindUnknown, msgStorageUnavailable, storeErr)
		s.emit(metrics.OpLogin, metrics.ResultError, time.Since(start), storeErr)
		return "", s.err
	}

	s.token = tok
	s.user = &user
	s.state = domainauth.StateAuthenticated
	s.err = nil

	dest := s.tokens.TakeRedirectTarget(ctx)
	if dest == "" {
		dest = s.cfg.HomePath
	}
	s.logger.InfoContext(ctx, "login succeeded", "user_id", user.ID)
	s.emit(metrics.OpLogin, metrics.ResultSuccess, time.Since(start), nil)
	return dest, nil
}

// Signup creates an account. It never authenticates the session.
func (s *SessionStore) Signup(ctx context.Context, in domainauth.SignupInput) (domainauth.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := in.Validate(); err != nil {
		s.setError(domainauth.AsError(err))
		return domainauth.User{}, err
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return domainauth.User{}, domainauth.ErrBusy
	}
	s.loading = true
	s.err = nil
	gen := s.generation
	s.bumpLocked()
	s.mu.Unlock()

	start := time.Now()
	user, err := s.gateway.Signup(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.bumpLocked()
	current := gen == s.generation
	if current {
		s.loading = false
	}

	if err != nil {
		authErr := domainauth.AsError(err)
		if current {
			s.err = authErr
		}
		s.emit(metrics.OpSignup, metrics.ResultError, time.Since(start), authErr)
		return domainauth.User{}, authErr
	}
	s.emit(metrics.OpSignup, metrics.ResultSuccess, time.Since(start), nil)
	return user, nil
}

// Logout clears the session from any state and returns the login path.
// In-flight responses for the old session are discarded when they arrive and
// a new login may start at once. Logout never marks the session ready; only
// Hydrate does.
func (s *SessionStore) Logout(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invalidateLocked(ctx)
	s.state = domainauth.StateUnauthenticated
	s.err = nil
	s.bumpLocked()
	s.emit(metrics.OpLogout, metrics.ResultSuccess, 0, nil)
	return s.cfg.LoginPath
}

// RefreshUser re-fetches the current user. Concurrent refreshes of the same
// session share one request. A rejected token logs the session out.
func (s *SessionStore) RefreshUser(ctx context.Context) error {
	s.mu.Lock()
	tok := s.token
	gen := s.generation
	s.mu.Unlock()

	if tok == "" {
		return domainauth.ErrNoSession
	}

	start := time.Now()
	// The shared call must not die with whichever caller happened to start it.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.refreshes.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		return s.gateway.FetchCurrentUser(shared, tok)
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.emit(metrics.OpRefresh, metrics.ResultDiscarded, time.Since(start), nil)
		return domainauth.ErrStaleResponse
	}
	if err != nil {
		authErr := domainauth.AsError(err)
		if authErr.Kind == domainauth.KindUnauthorized {
			s.expireLocked(ctx, authErr)
		}
		s.emit(metrics.OpRefresh, metrics.ResultError, time.Since(start), authErr)
		return authErr
	}

	user, ok := v.(domainauth.User)
	if !ok {
		return errors.New("refresh: unexpected result type")
	}
	s.user = &user
	s.bumpLocked()
	s.emit(metrics.OpRefresh, metrics.ResultSuccess, time.Since(start), nil)
	return nil
}

// Reconcile brings the in-memory session back in line with durable storage,
// which another process sharing the store may have changed. A removed token
// ends the session; a different token is adopted after fetching its user.
// Nothing happens before the session is ready or while a login runs, and a
// storage read failure leaves the session untouched.
func (s *SessionStore) Reconcile(ctx context.Context) error {
	s.mu.Lock()
	if !s.ready || s.loading {
		s.mu.Unlock()
		return nil
	}
	mem, gen := s.token, s.generation
	s.mu.Unlock()

	durable, err := s.tokens.LoadToken(ctx)
	if err != nil {
		return err
	}
	if durable == mem {
		return nil
	}

	if durable == "" {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.generation {
			return nil
		}
		s.logger.InfoContext(ctx, "stored token removed by another process; ending session")
		s.forgetLocked()
		s.state = domainauth.StateUnauthenticated
		s.err = nil
		s.bumpLocked()
		s.emit(metrics.OpReconcile, metrics.ResultSuccess, 0, nil)
		return nil
	}

	start := time.Now()
	var (
		user     domainauth.User
		fetchErr error
	)
	if tokenExpired(durable, s.cfg.Now()) {
		fetchErr = domainauth.NewError(domainauth.KindUnauthorized, domainauth.MsgSessionExpired)
	} else {
		user, fetchErr = s.gateway.FetchCurrentUser(ctx, durable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.emit(metrics.OpReconcile, metrics.ResultDiscarded, time.Since(start), nil)
		return nil
	}
	if fetchErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		authErr := domainauth.AsError(fetchErr)
		if authErr.Kind == domainauth.KindUnauthorized {
			s.invalidateLocked(ctx)
		} else {
			// The stored token is not proven bad; only the stale in-memory copy goes.
			s.forgetLocked()
		}
		s.state = domainauth.StateUnauthenticated
		s.err = authErr
		s.bumpLocked()
		s.emit(metrics.OpReconcile, metrics.ResultError, time.Since(start), authErr)
		return authErr
	}

	s.logger.InfoContext(ctx, "adopted session stored by another process", "user_id", user.ID)
	s.token = durable
	s.user = &user
	s.state = domainauth.StateAuthenticated
	s.err = nil
	s.generation++
	s.bumpLocked()
	s.emit(metrics.OpReconcile, metrics.ResultSuccess, time.Since(start), nil)
	return nil
}

// ClearError removes the stored error message.
func (s *SessionStore) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		return
	}
	s.err = nil
	s.bumpLocked()
}

func (s *SessionStore) setError(err *domainauth.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	s.bumpLocked()
}

// credentials returns the current token and generation for an authenticated call.
func (s *SessionStore) credentials() (domainauth.Token, uint64, *domainauth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" || s.user == nil {
		return "", 0, nil, domainauth.ErrNoSession
	}
	u := *s.user
	return s.token, s.generation, &u, nil
}

// handleCallError routes Unauthorized through the centralized cleanup when the
// failing call still belongs to the current session.
func (s *SessionStore) handleCallError(ctx context.Context, gen uint64, err error) error {
	authErr := domainauth.AsError(err)
	if authErr.Kind != domainauth.KindUnauthorized {
		return authErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation {
		s.expireLocked(ctx, authErr)
	}
	return authErr
}

// expireLocked logs the session out after the server rejected its token.
func (s *SessionStore) expireLocked(ctx context.Context, cause *domainauth.Error) {
	s.logger.InfoContext(ctx, "token rejected; clearing session")
	s.invalidateLocked(ctx)
	s.state = domainauth.StateUnauthenticated
	s.err = cause
	s.bumpLocked()
}

// dropCredentialsLocked clears the token and user from memory and durable storage.
// Together with invalidateLocked it is the only path that removes credentials.
func (s *SessionStore) dropCredentialsLocked(ctx context.Context) {
	s.tokens.ClearToken(ctx)
	s.forgetLocked()
}

// forgetLocked is the in-memory half of dropCredentialsLocked. It is used on its
// own only when durable storage no longer holds the in-memory token.
// A login or signup still in flight belongs to the old generation and will be
// discarded, so the busy flag is released here.
func (s *SessionStore) forgetLocked() {
	had := s.token != "" || s.user != nil
	s.token = ""
	s.user = nil
	s.loading = false
	s.generation++
	if had {
		s.emit(metrics.OpCleanup, metrics.ResultSuccess, 0, nil)
	}
}

// invalidateLocked drops credentials and the pending redirect target.
func (s *SessionStore) invalidateLocked(ctx context.Context) {
	s.dropCredentialsLocked(ctx)
	s.tokens.ClearRedirectTarget(ctx)
}

// settleLocked marks the initial status as known. Only Hydrate calls it, and
// readiness never reverts.
func (s *SessionStore) settleLocked() {
	if !s.ready {
		s.ready = true
		close(s.readyCh)
	}
}

func (s *SessionStore) bumpLocked() {
	s.version++
}

func (s *SessionStore) emit(op, result string, d time.Duration, err error) {
	metrics.EmitSessionTransition(s.cfg.Metrics, metrics.SessionMetric{
		Operation: op,
		Result:    result,
		Duration:  d,
		Err:       err,
	})
}
