package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/emircancapkan/karma-case/internal/api"
	"github.com/emircancapkan/karma-case/internal/models"
	"github.com/emircancapkan/karma-case/internal/store"
)

type stubAuthAPI struct {
	loginResult    api.AuthResult
	loginErr       error
	registerResult api.AuthResult
	registerErr    error
	usernameFree   bool
	usernameErr    error
	mailFree       bool
	mailErr        error
	logoutErr      error
	logoutCalls    int
}

func (s *stubAuthAPI) Login(ctx context.Context, req api.LoginRequest) (api.AuthResult, error) {
	return s.loginResult, s.loginErr
}

func (s *stubAuthAPI) Register(ctx context.Context, req api.RegisterRequest) (api.AuthResult, error) {
	return s.registerResult, s.registerErr
}

func (s *stubAuthAPI) CheckUsername(ctx context.Context, username string) (bool, error) {
	return s.usernameFree, s.usernameErr
}

func (s *stubAuthAPI) CheckMail(ctx context.Context, mail string) (bool, error) {
	return s.mailFree, s.mailErr
}

func (s *stubAuthAPI) Logout(ctx context.Context) error {
	s.logoutCalls++
	return s.logoutErr
}

type stubUserAPI struct {
	updated     models.User
	updateErr   error
	deleteErr   error
	purchaseErr error
}

func (s *stubUserAPI) Update(ctx context.Context, req api.UpdateRequest) (models.User, error) {
	return s.updated, s.updateErr
}

func (s *stubUserAPI) Delete(ctx context.Context) error { return s.deleteErr }

func (s *stubUserAPI) Purchase(ctx context.Context) error { return s.purchaseErr }

func newTestController(auth AuthAPI, users UserAPI) (*Controller, *store.MemoryBackend) {
	backend := store.NewMemoryBackend()
	return NewController(auth, users, store.New(backend)), backend
}

func authenticated(t *testing.T, user models.User) (*Controller, *store.MemoryBackend, *stubAuthAPI, *stubUserAPI) {
	t.Helper()
	auth := &stubAuthAPI{loginResult: api.AuthResult{Token: "tok-1", User: user}}
	users := &stubUserAPI{}
	ctrl, backend := newTestController(auth, users)
	if err := ctrl.Login(context.Background(), "kara", "hunter22"); err != nil {
		t.Fatalf("seed login: %v", err)
	}
	return ctrl, backend, auth, users
}

func TestControllerLoginPersistsTokenAndUserTogether(t *testing.T) {
	user := models.User{ID: "u1", Username: "kara", Credits: 3}
	ctrl, backend, _, _ := authenticated(t, user)

	if ctrl.State() != StateAuthenticated {
		t.Fatalf("expected authenticated state, got %v", ctrl.State())
	}
	if !backend.Has(store.KeyAuthToken) || !backend.Has(store.KeyUserData) {
		t.Fatal("login must persist both the token and the user")
	}
	sess, ok := ctrl.Session()
	if !ok || sess.Token != "tok-1" || sess.User.ID != "u1" {
		t.Fatalf("unexpected session: %+v ok=%v", sess, ok)
	}
}

func TestControllerLoginFailurePersistsNothing(t *testing.T) {
	auth := &stubAuthAPI{loginErr: &api.Error{Kind: api.KindAPI, Status: http.StatusUnauthorized, Message: "bad credentials"}}
	ctrl, backend := newTestController(auth, &stubUserAPI{})

	if err := ctrl.Login(context.Background(), "kara", "wrong"); err == nil {
		t.Fatal("expected login error")
	}
	if ctrl.State() != StateAnonymous {
		t.Fatalf("failed login must return to anonymous, got %v", ctrl.State())
	}
	if backend.Has(store.KeyAuthToken) || backend.Has(store.KeyUserData) {
		t.Fatal("failed login must not persist identity keys")
	}
}

func TestControllerLoginRejectsEmptyCredentials(t *testing.T) {
	ctrl, _ := newTestController(&stubAuthAPI{}, &stubUserAPI{})

	err := ctrl.Login(context.Background(), "", "secret")
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Kind != api.KindClient {
		t.Fatalf("expected client-kind error, got %v", err)
	}
}

func TestControllerLogoutClearsEverythingEvenWhenRemoteFails(t *testing.T) {
	ctrl, backend, auth, _ := authenticated(t, models.User{ID: "u1", Username: "kara"})
	auth.logoutErr = fmt.Errorf("gateway timeout")

	ctrl.Logout(context.Background())

	if auth.logoutCalls != 1 {
		t.Fatalf("expected one remote logout attempt, got %d", auth.logoutCalls)
	}
	if ctrl.State() != StateAnonymous {
		t.Fatalf("expected anonymous state, got %v", ctrl.State())
	}
	if backend.Has(store.KeyAuthToken) || backend.Has(store.KeyUserData) {
		t.Fatal("logout must remove both identity keys")
	}
}

func TestControllerIdentityListenersFireOnTransitions(t *testing.T) {
	auth := &stubAuthAPI{loginResult: api.AuthResult{Token: "tok-1", User: models.User{ID: "u1"}}}
	ctrl, _ := newTestController(auth, &stubUserAPI{})

	fired := 0
	ctrl.OnIdentityChange(func() { fired++ })

	if err := ctrl.Login(context.Background(), "kara", "hunter22"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if fired != 1 {
		t.Fatalf("login must notify once, got %d", fired)
	}

	ctrl.Logout(context.Background())
	if fired != 2 {
		t.Fatalf("logout must notify again, got %d", fired)
	}
}

func TestControllerRehydrateRestoresSession(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryBackend()
	st := store.New(backend)
	st.SetToken(ctx, "tok-1")
	st.SetUser(ctx, models.User{ID: "u1", Username: "kara"})

	ctrl := NewController(&stubAuthAPI{}, &stubUserAPI{}, st)
	if state := ctrl.Rehydrate(ctx); state != StateAuthenticated {
		t.Fatalf("expected authenticated after rehydrate, got %v", state)
	}
	if got := ctrl.CurrentUserID(); got != "u1" {
		t.Fatalf("unexpected user id %q", got)
	}
}

func TestControllerRehydratePartialIdentityClearsBothKeys(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryBackend()
	st := store.New(backend)
	st.SetToken(ctx, "tok-orphan")

	ctrl := NewController(&stubAuthAPI{}, &stubUserAPI{}, st)
	if state := ctrl.Rehydrate(ctx); state != StateAnonymous {
		t.Fatalf("partial identity must rehydrate anonymous, got %v", state)
	}
	if backend.Has(store.KeyAuthToken) || backend.Has(store.KeyUserData) {
		t.Fatal("partial identity must be cleaned from the store")
	}
}

func TestControllerDecrementCreditsFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	ctrl, _, _, _ := authenticated(t, models.User{ID: "u1", Credits: 1})

	ctrl.DecrementCredits(ctx)
	ctrl.DecrementCredits(ctx)
	ctrl.DecrementCredits(ctx)

	user, ok := ctrl.CurrentUser()
	if !ok || user.Credits != 0 {
		t.Fatalf("credits must floor at zero, got %+v ok=%v", user, ok)
	}
}

func TestControllerDecrementCreditsSkipsPremiumAndUnlimited(t *testing.T) {
	ctx := context.Background()
	for name, user := range map[string]models.User{
		"premium":   {ID: "u1", Credits: 5, IsPremium: true},
		"unlimited": {ID: "u1", Credits: models.UnlimitedCredits},
	} {
		ctrl, _, _, _ := authenticated(t, user)
		ctrl.DecrementCredits(ctx)
		got, _ := ctrl.CurrentUser()
		if got.Credits != user.Credits {
			t.Fatalf("%s: credits must not change, got %d want %d", name, got.Credits, user.Credits)
		}
	}
}

func TestControllerDecrementCreditsPersists(t *testing.T) {
	ctx := context.Background()
	ctrl, backend, _, _ := authenticated(t, models.User{ID: "u1", Credits: 3})

	ctrl.DecrementCredits(ctx)

	st := store.New(backend)
	persisted, ok := st.User(ctx)
	if !ok || persisted.Credits != 2 {
		t.Fatalf("expected persisted credits 2, got %+v ok=%v", persisted, ok)
	}
}

func TestControllerDeleteAccountFailureKeepsSession(t *testing.T) {
	ctrl, backend, _, users := authenticated(t, models.User{ID: "u1"})
	users.deleteErr = &api.Error{Kind: api.KindNetwork, Err: fmt.Errorf("refused")}

	if err := ctrl.DeleteAccount(context.Background()); err == nil {
		t.Fatal("expected delete error")
	}
	if ctrl.State() != StateAuthenticated {
		t.Fatalf("failed delete must keep the session, got %v", ctrl.State())
	}
	if !backend.Has(store.KeyAuthToken) {
		t.Fatal("failed delete must keep the persisted token")
	}
}

func TestControllerDeleteAccountTearsDownOnSuccess(t *testing.T) {
	ctrl, backend, _, _ := authenticated(t, models.User{ID: "u1"})

	if err := ctrl.DeleteAccount(context.Background()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ctrl.State() != StateAnonymous || backend.Has(store.KeyUserData) {
		t.Fatal("successful delete must clear local identity")
	}
}

func TestControllerUpdateProfileMergesOnlySubmittedFields(t *testing.T) {
	ctx := context.Background()
	ctrl, _, _, users := authenticated(t, models.User{ID: "u1", Username: "kara", Mail: "kara@example.com", Credits: 3})
	users.updated = models.User{Username: "karabatak"}

	if err := ctrl.UpdateProfile(ctx, api.UpdateRequest{Username: "karabatak"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	user, _ := ctrl.CurrentUser()
	if user.Username != "karabatak" {
		t.Fatalf("username must be updated, got %q", user.Username)
	}
	if user.Mail != "kara@example.com" || user.Credits != 3 {
		t.Fatalf("untouched fields must survive, got %+v", user)
	}
}

func TestControllerPurchaseGrantsUnlimited(t *testing.T) {
	ctx := context.Background()
	ctrl, backend, _, _ := authenticated(t, models.User{ID: "u1", Credits: 2})
	ctrl.nowFunc = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }

	if err := ctrl.Purchase(ctx, models.PlanAnnual); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	user, _ := ctrl.CurrentUser()
	if !user.IsPremium || user.Credits != models.UnlimitedCredits || user.MembershipPlan != models.PlanAnnual {
		t.Fatalf("unexpected user after purchase: %+v", user)
	}

	persisted, ok := store.New(backend).User(ctx)
	if !ok || !persisted.IsPremium {
		t.Fatalf("purchase must persist the upgraded user, got %+v ok=%v", persisted, ok)
	}
}

func TestControllerPurchaseRejectsUnknownPlan(t *testing.T) {
	ctrl, _, _, _ := authenticated(t, models.User{ID: "u1"})

	err := ctrl.Purchase(context.Background(), "lifetime")
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Kind != api.KindClient {
		t.Fatalf("expected client-kind error, got %v", err)
	}
}

func TestControllerAvailabilityInterpretation(t *testing.T) {
	netErr := &api.Error{Kind: api.KindNetwork, Err: fmt.Errorf("refused")}

	cases := []struct {
		name      string
		stub      stubAuthAPI
		available bool
		wantErr   bool
	}{
		{name: "free", stub: stubAuthAPI{usernameFree: true}, available: true},
		{name: "taken", stub: stubAuthAPI{usernameErr: &api.Error{Kind: api.KindAPI, Status: http.StatusConflict, Message: "taken"}}},
		{name: "offline", stub: stubAuthAPI{usernameErr: netErr}, wantErr: true},
	}

	for _, tc := range cases {
		stub := tc.stub
		ctrl, _ := newTestController(&stub, &stubUserAPI{})
		available, err := ctrl.CheckUsername(context.Background(), "karabatak")
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tc.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if available != tc.available {
			t.Fatalf("%s: availability=%v want %v", tc.name, available, tc.available)
		}
	}
}

func TestControllerSignupFillsMissingMail(t *testing.T) {
	auth := &stubAuthAPI{registerResult: api.AuthResult{Token: "tok-1", User: models.User{ID: "u1", Username: "karabatak"}}}
	ctrl, _ := newTestController(auth, &stubUserAPI{})

	if err := ctrl.Signup(context.Background(), "karabatak", "hunter22", "kara@example.com", "1234"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	user, _ := ctrl.CurrentUser()
	if user.Mail != "kara@example.com" {
		t.Fatalf("signup must backfill the mail, got %q", user.Mail)
	}
}

func TestControllerSignupValidatesLocallyFirst(t *testing.T) {
	auth := &stubAuthAPI{}
	ctrl, _ := newTestController(auth, &stubUserAPI{})

	cases := map[string][4]string{
		"short username": {"abc", "hunter22", "kara@example.com", "1234"},
		"short password": {"karabatak", "12345", "kara@example.com", "1234"},
		"bad mail":       {"karabatak", "hunter22", "not-a-mail", "1234"},
		"bad code":       {"karabatak", "hunter22", "kara@example.com", "12"},
	}
	for name, in := range cases {
		err := ctrl.Signup(context.Background(), in[0], in[1], in[2], in[3])
		var apiErr *api.Error
		if !errors.As(err, &apiErr) || apiErr.Kind != api.KindClient {
			t.Fatalf("%s: expected client-kind error, got %v", name, err)
		}
	}
}
