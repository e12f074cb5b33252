package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/emircancapkan/karma-case/internal/api"
	"github.com/emircancapkan/karma-case/internal/logging"
	"github.com/emircancapkan/karma-case/internal/models"
	"github.com/emircancapkan/karma-case/internal/store"
)

// State is the controller's authentication lifecycle phase.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
)

// ErrNotAuthenticated is returned by operations that require a session.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// Controller owns the authentication lifecycle. It keeps the persistent
// store and the in-memory session in step and publishes identity changes
// so derived caches can drop records from a prior account.
type Controller struct {
	auth  AuthAPI
	users UserAPI
	store *store.Store

	mu      sync.RWMutex
	state   State
	session models.Session

	listenMu  sync.Mutex
	listeners []func()

	nowFunc func() time.Time
}

// NewController wires the controller to its endpoint groups and store.
func NewController(auth AuthAPI, users UserAPI, st *store.Store) *Controller {
	if st == nil {
		panic("session: store must not be nil")
	}
	return &Controller{
		auth:  auth,
		users: users,
		store: st,
		state: StateAnonymous,
	}
}

// OnIdentityChange registers fn to run on every identity transition:
// login, logout, and account deletion. Derived caches subscribe here.
func (c *Controller) OnIdentityChange(fn func()) {
	if fn == nil {
		return
	}
	c.listenMu.Lock()
	c.listeners = append(c.listeners, fn)
	c.listenMu.Unlock()
}

// State returns the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Session returns the current token/user pair when authenticated.
func (c *Controller) Session() (models.Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateAuthenticated {
		return models.Session{}, false
	}
	return c.session, true
}

// CurrentUser returns the authenticated profile, if any.
func (c *Controller) CurrentUser() (models.User, bool) {
	sess, ok := c.Session()
	return sess.User, ok
}

// CurrentUserID returns the authenticated user's id, or "".
func (c *Controller) CurrentUserID() string {
	sess, ok := c.Session()
	if !ok {
		return ""
	}
	return sess.User.ID
}

// Rehydrate restores an authenticated session from the persistent store
// without a network round-trip. If only one of the two keys survived, both
// are removed so identity stays all-or-nothing.
func (c *Controller) Rehydrate(ctx context.Context) State {
	token, okToken := c.store.Token(ctx)
	user, okUser := c.store.User(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if okToken && okUser {
		c.session = models.Session{Token: token, User: user}
		c.state = StateAuthenticated
		logging.FromContext(ctx).Info("session rehydrated", "userId", user.ID)
		return c.state
	}

	if okToken || okUser {
		logging.FromContext(ctx).Warn("partial persisted identity, clearing", "hasToken", okToken, "hasUser", okUser)
		c.store.Remove(ctx, store.KeyAuthToken)
		c.store.Remove(ctx, store.KeyUserData)
	}

	c.session = models.Session{}
	c.state = StateAnonymous
	return c.state
}

// Login authenticates with the backend and establishes the session.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	ctx, span := logging.StartSpan(ctx, "login")
	defer span.End()

	if username == "" || password == "" {
		return &api.Error{Kind: api.KindClient, Err: errors.New("username and password are required")}
	}

	c.setState(StateAuthenticating)

	result, err := c.auth.Login(ctx, api.LoginRequest{Username: username, Password: password})
	if err != nil {
		c.setState(StateAnonymous)
		return err
	}

	c.establish(ctx, result)
	return nil
}

// Signup registers an account and establishes its first session.
func (c *Controller) Signup(ctx context.Context, username, password, mail, code string) error {
	ctx, span := logging.StartSpan(ctx, "signup")
	defer span.End()

	if err := ValidateUsername(username); err != nil {
		return &api.Error{Kind: api.KindClient, Err: err}
	}
	if err := ValidatePassword(password); err != nil {
		return &api.Error{Kind: api.KindClient, Err: err}
	}
	if err := ValidateMail(mail); err != nil {
		return &api.Error{Kind: api.KindClient, Err: err}
	}
	if code != "" {
		if err := ValidateCode(code); err != nil {
			return &api.Error{Kind: api.KindClient, Err: err}
		}
	}

	c.setState(StateAuthenticating)

	result, err := c.auth.Register(ctx, api.RegisterRequest{
		Username: username,
		Password: password,
		Mail:     mail,
		Code:     code,
	})
	if err != nil {
		c.setState(StateAnonymous)
		return err
	}

	// Some backend snapshots omit the mail field on the created user.
	if result.User.Mail == "" {
		result.User.Mail = mail
	}

	c.establish(ctx, result)
	return nil
}

// Logout tears the session down. The remote notification is best effort;
// local state is always cleared.
func (c *Controller) Logout(ctx context.Context) {
	ctx, span := logging.StartSpan(ctx, "logout")
	defer span.End()

	if c.State() == StateAuthenticated && c.auth != nil {
		if err := c.auth.Logout(ctx); err != nil {
			logging.FromContext(ctx).Warn("remote logout failed", "error", err)
		}
	}

	c.teardown(ctx)
}

// DeleteAccount removes the account remotely, then locally. When the
// remote call fails the local session is kept so local and remote
// identity never diverge.
func (c *Controller) DeleteAccount(ctx context.Context) error {
	ctx, span := logging.StartSpan(ctx, "delete-account")
	defer span.End()

	if c.State() != StateAuthenticated {
		return ErrNotAuthenticated
	}

	if err := c.users.Delete(ctx); err != nil {
		return err
	}

	c.teardown(ctx)
	return nil
}

// UpdateProfile submits accepted fields and merges them into the current
// user, preserving everything the update did not touch.
func (c *Controller) UpdateProfile(ctx context.Context, req api.UpdateRequest) error {
	if c.State() != StateAuthenticated {
		return ErrNotAuthenticated
	}

	updated, err := c.users.Update(ctx, req)
	if err != nil {
		return err
	}

	c.mu.Lock()
	user := c.session.User
	if req.Username != "" {
		user.Username = firstOf(updated.Username, req.Username)
	}
	if req.Mail != "" {
		user.Mail = firstOf(updated.Mail, req.Mail)
	}
	c.session.User = user
	c.mu.Unlock()

	c.store.SetUser(ctx, user)
	return nil
}

// Purchase upgrades to premium: remote-confirmed, then locally merged as
// unlimited credits plus the chosen plan.
func (c *Controller) Purchase(ctx context.Context, plan string) error {
	if c.State() != StateAuthenticated {
		return ErrNotAuthenticated
	}
	if plan != models.PlanAnnual && plan != models.PlanWeekly {
		return &api.Error{Kind: api.KindClient, Err: fmt.Errorf("unknown membership plan %q", plan)}
	}

	if err := c.users.Purchase(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	user := c.session.User
	user.IsPremium = true
	user.Credits = models.UnlimitedCredits
	user.MembershipPlan = plan
	user.MembershipStartDate = c.now()
	c.session.User = user
	c.mu.Unlock()

	c.store.SetUser(ctx, user)
	return nil
}

// DecrementCredits applies the optimistic local cost of one confirmed
// generation. Premium accounts are never charged; credits floor at zero.
func (c *Controller) DecrementCredits(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateAuthenticated || c.session.User.IsPremium || c.session.User.Unlimited() {
		c.mu.Unlock()
		return
	}
	user := c.session.User
	if user.Credits > 0 {
		user.Credits--
	}
	c.session.User = user
	c.mu.Unlock()

	c.store.SetUser(ctx, user)
}

// CheckUsername reports whether username is available. A backend
// rejection means taken; only connectivity problems surface as errors.
func (c *Controller) CheckUsername(ctx context.Context, username string) (bool, error) {
	available, err := c.auth.CheckUsername(ctx, username)
	return interpretAvailability(available, err)
}

// CheckMail reports whether mail is available and triggers the
// verification code send.
func (c *Controller) CheckMail(ctx context.Context, mail string) (bool, error) {
	available, err := c.auth.CheckMail(ctx, mail)
	return interpretAvailability(available, err)
}

func interpretAvailability(available bool, err error) (bool, error) {
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Kind == api.KindAPI {
			return false, nil
		}
		return false, err
	}
	return available, nil
}

// establish publishes the new identity: caches are cleared first so no
// record from a prior account can be observed against the new session.
func (c *Controller) establish(ctx context.Context, result api.AuthResult) {
	c.notifyIdentityChange()

	c.store.SetToken(ctx, result.Token)
	c.store.SetUser(ctx, result.User)

	c.mu.Lock()
	c.session = models.Session{Token: result.Token, User: result.User}
	c.state = StateAuthenticated
	c.mu.Unlock()

	logging.FromContext(ctx).Info("session established", "userId", result.User.ID)
}

func (c *Controller) teardown(ctx context.Context) {
	c.notifyIdentityChange()

	c.store.Remove(ctx, store.KeyAuthToken)
	c.store.Remove(ctx, store.KeyUserData)

	c.mu.Lock()
	c.session = models.Session{}
	c.state = StateAnonymous
	c.mu.Unlock()

	logging.FromContext(ctx).Info("session cleared")
}

func (c *Controller) notifyIdentityChange() {
	c.listenMu.Lock()
	listeners := make([]func(), len(c.listeners))
	copy(listeners, c.listeners)
	c.listenMu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

func (c *Controller) setState(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *Controller) now() time.Time {
	if c.nowFunc != nil {
		return c.nowFunc()
	}
	return time.Now().UTC()
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
