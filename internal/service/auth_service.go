package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"retiro-api/internal/models"
	"retiro-api/internal/repository"
	"retiro-api/internal/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCaptchaFailed      = errors.New("captcha verification failed")
	ErrInvalidActivation  = errors.New("invalid activation link")
)

// FieldError is a validation failure attributable to a single input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

// Mailer sends the activation email. Implemented by the smtp mailer; faked in tests.
type Mailer interface {
	Send(to, subject, body string) error
}

// CaptchaVerifier checks a bot-challenge token against the external service.
type CaptchaVerifier interface {
	Enabled() bool
	Verify(ctx context.Context, token string) (bool, error)
}

type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	CaptchaToken    string `json:"captcha_token"`
}

type AuthService struct {
	users         repository.UserRepository
	tokens        *ActivationTokens
	mailer        Mailer
	captcha       CaptchaVerifier
	sessionSecret string
	baseURL       string
	log           zerolog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *ActivationTokens,
	mailer Mailer,
	captcha CaptchaVerifier,
	sessionSecret, baseURL string,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:         users,
		tokens:        tokens,
		mailer:        mailer,
		captcha:       captcha,
		sessionSecret: sessionSecret,
		baseURL:       baseURL,
		log:           log,
	}
}

// passwordSymbols is the punctuation set one of which a password must contain.
const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

// ValidatePassword enforces the complexity rules: at least one uppercase
// letter, one digit, and one symbol from the defined set. Messages are the
// user-facing ones the frontend shows verbatim.
func ValidatePassword(pw string) error {
	var hasUpper, hasDigit, hasSymbol bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}
	switch {
	case !hasUpper:
		return &FieldError{Field: "password", Message: "La contraseña debe contener al menos una letra mayúscula."}
	case !hasDigit:
		return &FieldError{Field: "password", Message: "La contraseña debe contener al menos un número."}
	case !hasSymbol:
		return &FieldError{Field: "password", Message: "La contraseña debe contener al menos un carácter especial (ej. @, #, $)."}
	}
	return nil
}

// Register validates the input, optionally verifies the bot challenge, creates
// an inactive staff user and sends the activation email. Validation errors come
// back as *FieldError; everything else is wrapped so the handler can keep the
// response generic.
func (a *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if in.Username == "" {
		return nil, &FieldError{Field: "username", Message: "El nombre de usuario es obligatorio."}
	}
	if in.Email == "" {
		return nil, &FieldError{Field: "email", Message: "El email es obligatorio."}
	}
	if in.Password != in.ConfirmPassword {
		return nil, &FieldError{Field: "confirm_password", Message: "Las contraseñas no coinciden."}
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	if a.captcha != nil && a.captcha.Enabled() {
		ok, err := a.captcha.Verify(ctx, in.CaptchaToken)
		if err != nil {
			a.log.Error().Err(err).Msg("captcha service failure")
			return nil, ErrCaptchaFailed
		}
		if !ok {
			return nil, ErrCaptchaFailed
		}
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         models.RoleUser,
		Active:       false,
		// registration grants the baseline can-view-agents permission
		Staff: true,
	}
	if err := a.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	link := fmt.Sprintf("%s/auth/activate/%s/%s/", a.baseURL, EncodeUID(u.ID), a.tokens.Make(u))
	body := fmt.Sprintf(
		"<p>Hola %s,</p><p>Activá tu cuenta del registro de jubilaciones haciendo clic en el siguiente enlace:</p><p><a href=%q>%s</a></p>",
		u.Username, link, link)
	if err := a.mailer.Send(u.Email, "Activá tu cuenta", body); err != nil {
		// account exists; the email can be retriggered manually
		a.log.Error().Err(err).Str("user", u.Username).Msg("activation email failed")
	}
	return u, nil
}

// Login checks credentials and issues the access token with username and role claims.
func (a *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	u, err := a.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", nil, err
	}
	if u == nil || !u.Active || !utils.CheckPassword(u.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}
	tok, err := utils.SignJWT(a.sessionSecret, u.ID, u.Username, u.Role, 8*time.Hour)
	if err != nil {
		return "", nil, err
	}
	return tok, u, nil
}

// Activate consumes an activation link. The token is bound to the inactive
// state, so a second call with the same link fails.
func (a *AuthService) Activate(ctx context.Context, uidB64, token string) error {
	id, err := DecodeUID(uidB64)
	if err != nil {
		return ErrInvalidActivation
	}
	u, err := a.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil || !a.tokens.Check(u, token) {
		return ErrInvalidActivation
	}
	return a.users.SetActive(ctx, u.ID, true)
}
