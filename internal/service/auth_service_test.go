package service

import (
	"context"
	"testing"
	"time"

	"retiro-api/internal/models"
	"retiro-api/internal/utils"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	byUsername map[string]*models.User
	byID       map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byUsername: map[string]*models.User{},
		byID:       map[string]*models.User{},
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	cp := *u
	f.byUsername[u.Username] = &cp
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return f.byUsername[username], nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return f.byID[id], nil
}

func (f *fakeUserRepo) SetActive(ctx context.Context, id string, active bool) error {
	f.byID[id].Active = active
	return nil
}

func (f *fakeUserRepo) EnsureAdmin(ctx context.Context, u *models.User) error {
	return f.Create(ctx, u)
}

type fakeMailer struct{ sent []string }

func (f *fakeMailer) Send(to, subject, body string) error {
	f.sent = append(f.sent, to)
	return nil
}

type fakeCaptcha struct {
	enabled bool
	ok      bool
}

func (f *fakeCaptcha) Enabled() bool { return f.enabled }
func (f *fakeCaptcha) Verify(ctx context.Context, token string) (bool, error) {
	return f.ok && token != "", nil
}

func newTestAuth(users *fakeUserRepo, cap *fakeCaptcha) (*AuthService, *fakeMailer) {
	mailer := &fakeMailer{}
	tokens := NewActivationTokens("test-secret", 72*time.Hour)
	svc := NewAuthService(users, tokens, mailer, cap,
		"session-secret", "http://localhost:3000", zerolog.Nop())
	return svc, mailer
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantMsg  string
	}{
		{"missing uppercase", "clave123$", "una letra mayúscula"},
		{"missing digit", "ClaveSegura$", "un número"},
		{"missing symbol", "ClaveSegura123", "un carácter especial"},
		{"valid", "ClaveSegura123$", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, "password", fe.Field)
			assert.Contains(t, fe.Message, tt.wantMsg)
		})
	}
}

func TestRegisterPasswordMismatch(t *testing.T) {
	svc, _ := newTestAuth(newFakeUserRepo(), &fakeCaptcha{})

	_, err := svc.Register(context.Background(), RegisterInput{
		Username:        "maria",
		Email:           "maria@example.com",
		Password:        "ClaveSegura123$",
		ConfirmPassword: "Otra123$",
	})

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "confirm_password", fe.Field)
}

func TestRegisterCreatesInactiveStaffUserAndMails(t *testing.T) {
	users := newFakeUserRepo()
	svc, mailer := newTestAuth(users, &fakeCaptcha{})

	u, err := svc.Register(context.Background(), RegisterInput{
		Username:        "maria",
		Email:           "maria@example.com",
		Password:        "ClaveSegura123$",
		ConfirmPassword: "ClaveSegura123$",
	})
	require.NoError(t, err)

	assert.False(t, u.Active)
	assert.True(t, u.Staff)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.Equal(t, []string{"maria@example.com"}, mailer.sent)
}

func TestRegisterCaptchaRequiredWhenConfigured(t *testing.T) {
	svc, _ := newTestAuth(newFakeUserRepo(), &fakeCaptcha{enabled: true, ok: true})

	in := RegisterInput{
		Username:        "maria",
		Email:           "maria@example.com",
		Password:        "ClaveSegura123$",
		ConfirmPassword: "ClaveSegura123$",
	}

	_, err := svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrCaptchaFailed)

	in.CaptchaToken = "tok"
	_, err = svc.Register(context.Background(), in)
	assert.NoError(t, err)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	users := newFakeUserRepo()
	svc, _ := newTestAuth(users, &fakeCaptcha{})

	_, err := svc.Register(context.Background(), RegisterInput{
		Username:        "maria",
		Email:           "maria@example.com",
		Password:        "ClaveSegura123$",
		ConfirmPassword: "ClaveSegura123$",
	})
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "maria", "ClaveSegura123$")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginIssuesTokenWithRoleClaims(t *testing.T) {
	users := newFakeUserRepo()
	svc, _ := newTestAuth(users, &fakeCaptcha{})

	u, err := svc.Register(context.Background(), RegisterInput{
		Username:        "maria",
		Email:           "maria@example.com",
		Password:        "ClaveSegura123$",
		ConfirmPassword: "ClaveSegura123$",
	})
	require.NoError(t, err)
	require.NoError(t, users.SetActive(context.Background(), u.ID, true))

	tok, got, err := svc.Login(context.Background(), "maria", "ClaveSegura123$")
	require.NoError(t, err)
	assert.Equal(t, "maria", got.Username)

	claims, err := utils.ParseJWT("session-secret", tok)
	require.NoError(t, err)
	assert.Equal(t, "maria", claims.Username)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.Equal(t, u.ID, claims.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	users := newFakeUserRepo()
	svc, _ := newTestAuth(users, &fakeCaptcha{})

	u, err := svc.Register(context.Background(), RegisterInput{
		Username:        "maria",
		Email:           "maria@example.com",
		Password:        "ClaveSegura123$",
		ConfirmPassword: "ClaveSegura123$",
	})
	require.NoError(t, err)
	require.NoError(t, users.SetActive(context.Background(), u.ID, true))

	_, _, err = svc.Login(context.Background(), "maria", "equivocada")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestActivationIsSingleUse(t *testing.T) {
	users := newFakeUserRepo()
	svc, _ := newTestAuth(users, &fakeCaptcha{})

	u, err := svc.Register(context.Background(), RegisterInput{
		Username:        "maria",
		Email:           "maria@example.com",
		Password:        "ClaveSegura123$",
		ConfirmPassword: "ClaveSegura123$",
	})
	require.NoError(t, err)

	tokens := NewActivationTokens("test-secret", 72*time.Hour)
	stored, err := users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	token := tokens.Make(stored)
	uid := EncodeUID(u.ID)

	require.NoError(t, svc.Activate(context.Background(), uid, token))

	stored, err = users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active)

	// the active flag changed, so the same link must now fail
	assert.ErrorIs(t, svc.Activate(context.Background(), uid, token), ErrInvalidActivation)
}

func TestActivateRejectsGarbage(t *testing.T) {
	svc, _ := newTestAuth(newFakeUserRepo(), &fakeCaptcha{})

	assert.ErrorIs(t, svc.Activate(context.Background(), "!!!not-base64!!!", "tok"), ErrInvalidActivation)
	assert.ErrorIs(t, svc.Activate(context.Background(), EncodeUID("missing"), "tok"), ErrInvalidActivation)
}

func TestActivationTokenExpires(t *testing.T) {
	tokens := NewActivationTokens("s", time.Hour)
	u := &models.User{ID: "u1", PasswordHash: "h"}

	token := tokens.Make(u)
	require.True(t, tokens.Check(u, token))

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.False(t, tokens.Check(u, token))
}

func TestActivationTokenTamperRejected(t *testing.T) {
	tokens := NewActivationTokens("s", time.Hour)
	u := &models.User{ID: "u1", PasswordHash: "h"}

	token := tokens.Make(u)
	assert.False(t, tokens.Check(u, token+"x"))
	assert.False(t, tokens.Check(u, "zz-deadbeef"))

	other := &models.User{ID: "u2", PasswordHash: "h"}
	assert.False(t, tokens.Check(other, token))
}
