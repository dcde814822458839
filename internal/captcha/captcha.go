package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Verifier checks bot-challenge tokens against a reCAPTCHA-compatible
// siteverify endpoint. An empty secret disables verification entirely.
type Verifier struct {
	client    *http.Client
	verifyURL string
	secret    string
}

func New(verifyURL, secret string) *Verifier {
	return &Verifier{
		client:    &http.Client{},
		verifyURL: verifyURL,
		secret:    secret,
	}
}

func (v *Verifier) Enabled() bool { return v.secret != "" }

type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes,omitempty"`
}

func (v *Verifier) Verify(ctx context.Context, token string) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, nil
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("captcha verify request: %w", err)
	}
	defer resp.Body.Close()

	var out verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("captcha verify decode: %w", err)
	}
	return out.Success, nil
}
