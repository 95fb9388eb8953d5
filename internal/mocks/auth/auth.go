package auth

// Package auth contains simple hand-written test doubles for the session ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
	"github.com/socialadify/adify-console/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.KeyValueStore = (*MemoryKV)(nil)
	_ ports.AuthGateway   = (*FakeGateway)(nil)
)

// ErrStorageDown is the default failure injected by MemoryKV.
var ErrStorageDown = errors.New("storage unavailable")

// MemoryKV is an in-memory KeyValueStore. The Fail* fields inject errors per operation.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string]string

	FailGet    error
	FailSet    error
	FailDelete error
}

// NewMemoryKV creates an empty store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailGet != nil {
		return "", false, m.FailGet
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSet != nil {
		return m.FailSet
	}
	if m.data == nil {
		m.data = make(map[string]string)
	}
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDelete != nil {
		return m.FailDelete
	}
	delete(m.data, key)
	return nil
}

// Snapshot returns a copy of the stored pairs.
func (m *MemoryKV) Snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}

// Account is a registered user of FakeGateway.
type Account struct {
	Password string
	User     domainauth.User
}

// FakeGateway simulates the remote API with an in-memory account table.
// Any *Func field overrides the default behavior of its operation, which is how
// tests script failures or block a call mid-flight.
type FakeGateway struct {
	LoginFunc                func(ctx context.Context, creds domainauth.Credentials) (domainauth.Token, error)
	SignupFunc               func(ctx context.Context, in domainauth.SignupInput) (domainauth.User, error)
	FetchCurrentUserFunc     func(ctx context.Context, tok domainauth.Token) (domainauth.User, error)
	UpdateProfileFunc        func(ctx context.Context, tok domainauth.Token, in domainauth.ProfileUpdate) error
	ChangePasswordFunc       func(ctx context.Context, tok domainauth.Token, in domainauth.PasswordChange) error
	DeleteAccountFunc        func(ctx context.Context, tok domainauth.Token, in domainauth.AccountDeletion) error
	RequestPasswordResetFunc func(ctx context.Context, email string) (string, error)
	ResetPasswordFunc        func(ctx context.Context, in domainauth.PasswordReset) (string, error)

	mu       sync.Mutex
	accounts map[string]*Account // by lower-cased email
	tokens   map[domainauth.Token]string
	issued   int
	calls    map[string]int
}

// NewFakeGateway creates a gateway with no accounts.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		accounts: make(map[string]*Account),
		tokens:   make(map[domainauth.Token]string),
		calls:    make(map[string]int),
	}
}

// AddAccount registers a user that can log in with password.
func (g *FakeGateway) AddAccount(password string, user domainauth.User) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensure()
	g.accounts[strings.ToLower(user.Email)] = &Account{Password: password, User: user}
}

// IssueToken mints a valid token for an existing account without a login call.
func (g *FakeGateway) IssueToken(email string) domainauth.Token {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensure()
	return g.issueLocked(strings.ToLower(email))
}

// RevokeToken makes tok fail with Unauthorized from now on.
func (g *FakeGateway) RevokeToken(tok domainauth.Token) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.tokens, tok)
}

// SetAdmin changes the admin flag the server reports for email.
func (g *FakeGateway) SetAdmin(email string, admin bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if acct, ok := g.accounts[strings.ToLower(email)]; ok {
		acct.User.IsAdmin = admin
	}
}

// Calls returns how many times op was invoked.
func (g *FakeGateway) Calls(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *FakeGateway) ensure() {
	if g.accounts == nil {
		g.accounts = make(map[string]*Account)
	}
	if g.tokens == nil {
		g.tokens = make(map[domainauth.Token]string)
	}
	if g.calls == nil {
		g.calls = make(map[string]int)
	}
}

func (g *FakeGateway) record(op string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensure()
	g.calls[op]++
}

func (g *FakeGateway) issueLocked(email string) domainauth.Token {
	g.issued++
	tok := domainauth.Token(fmt.Sprintf("token-%d", g.issued))
	g.tokens[tok] = email
	return tok
}

func (g *FakeGateway) accountForLocked(tok domainauth.Token) (*Account, error) {
	email, ok := g.tokens[tok]
	if !ok {
		return nil, domainauth.NewError(domainauth.KindUnauthorized, domainauth.MsgSessionExpired)
	}
	acct, ok := g.accounts[email]
	if !ok {
		return nil, domainauth.NewError(domainauth.KindUnauthorized, domainauth.MsgSessionExpired)
	}
	return acct, nil
}

func (g *FakeGateway) Login(ctx context.Context, creds domainauth.Credentials) (domainauth.Token, error) {
	g.record("Login")
	if g.LoginFunc != nil {
		return g.LoginFunc(ctx, creds)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	email := strings.ToLower(creds.Email)
	acct, ok := g.accounts[email]
	if !ok || acct.Password != creds.Password {
		return "", &domainauth.Error{Kind: domainauth.KindInvalidCredentials, Message: domainauth.MsgInvalidCredentials, Status: 401}
	}
	return g.issueLocked(email), nil
}

func (g *FakeGateway) Signup(ctx context.Context, in domainauth.SignupInput) (domainauth.User, error) {
	g.record("Signup")
	if g.SignupFunc != nil {
		return g.SignupFunc(ctx, in)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensure()
	email := strings.ToLower(in.Email)
	if _, exists := g.accounts[email]; exists {
		return domainauth.User{}, &domainauth.Error{Kind: domainauth.KindConflict, Message: "Email already registered", Status: 409}
	}
	user := domainauth.User{
		ID:        fmt.Sprintf("user-%d", len(g.accounts)+1),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
	}
	g.accounts[email] = &Account{Password: in.Password, User: user}
	return user, nil
}

func (g *FakeGateway) FetchCurrentUser(ctx context.Context, tok domainauth.Token) (domainauth.User, error) {
	g.record("FetchCurrentUser")
	if g.FetchCurrentUserFunc != nil {
		return g.FetchCurrentUserFunc(ctx, tok)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	acct, err := g.accountForLocked(tok)
	if err != nil {
		return domainauth.User{}, err
	}
	return acct.User, nil
}

func (g *FakeGateway) UpdateProfile(ctx context.Context, tok domainauth.Token, in domainauth.ProfileUpdate) error {
	g.record("UpdateProfile")
	if g.UpdateProfileFunc != nil {
		return g.UpdateProfileFunc(ctx, tok, in)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	acct, err := g.accountForLocked(tok)
	if err != nil {
		return err
	}
	if in.FirstName != nil {
		acct.User.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		acct.User.LastName = *in.LastName
	}
	if in.NewEmail != nil {
		old := strings.ToLower(acct.User.Email)
		acct.User.Email = *in.NewEmail
		delete(g.accounts, old)
		g.accounts[strings.ToLower(*in.NewEmail)] = acct
		// The server invalidates tokens bound to the old email.
		for t, e := range g.tokens {
			if e == old {
				delete(g.tokens, t)
			}
		}
	}
	return nil
}

func (g *FakeGateway) ChangePassword(ctx context.Context, tok domainauth.Token, in domainauth.PasswordChange) error {
	g.record("ChangePassword")
	if g.ChangePasswordFunc != nil {
		return g.ChangePasswordFunc(ctx, tok, in)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	acct, err := g.accountForLocked(tok)
	if err != nil {
		return err
	}
	if acct.Password != in.CurrentPassword {
		return domainauth.Validation("", domainauth.FieldError{Field: "current_password", Message: "Current password is incorrect."})
	}
	acct.Password = in.NewPassword
	return nil
}

func (g *FakeGateway) DeleteAccount(ctx context.Context, tok domainauth.Token, in domainauth.AccountDeletion) error {
	g.record("DeleteAccount")
	if g.DeleteAccountFunc != nil {
		return g.DeleteAccountFunc(ctx, tok, in)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	acct, err := g.accountForLocked(tok)
	if err != nil {
		return err
	}
	if acct.Password != in.Password {
		return domainauth.Validation("", domainauth.FieldError{Field: "password", Message: "Incorrect password."})
	}
	email := strings.ToLower(acct.User.Email)
	delete(g.accounts, email)
	for t, e := range g.tokens {
		if e == email {
			delete(g.tokens, t)
		}
	}
	return nil
}

func (g *FakeGateway) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	g.record("RequestPasswordReset")
	if g.RequestPasswordResetFunc != nil {
		return g.RequestPasswordResetFunc(ctx, email)
	}
	return "If an account with that email exists, a password reset link has been sent.", nil
}

func (g *FakeGateway) ResetPassword(ctx context.Context, in domainauth.PasswordReset) (string, error) {
	g.record("ResetPassword")
	if g.ResetPasswordFunc != nil {
		return g.ResetPasswordFunc(ctx, in)
	}
	return "Password has been reset successfully.", nil
}
