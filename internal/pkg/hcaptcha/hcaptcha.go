// Package hcaptcha checks the challenge response posted with the
// registration form against the hCaptcha siteverify API.
package hcaptcha

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/juridiskporten/portal/internal/pkg/env"
)

// verifyURL is a variable so tests can point it at a local server.
var verifyURL = "https://api.hcaptcha.com/siteverify"

var client = &http.Client{Timeout: 10 * time.Second}

// ErrNotConfigured means HCAPTCHA_SECRET is missing from the environment.
var ErrNotConfigured = errors.New("hcaptcha: HCAPTCHA_SECRET is not set")

type verifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify sends the user's challenge response to the siteverify API and
// reports whether it passed. All failures come back as errors so the
// caller can show one generic message and log the detail.
func Verify(token string) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, errors.New("hcaptcha: empty challenge response")
	}

	secret := env.GetEnv("HCAPTCHA_SECRET", "")
	if secret == "" {
		return false, ErrNotConfigured
	}

	form := url.Values{
		"secret":   {secret},
		"response": {token},
	}
	if sitekey := env.GetEnv("HCAPTCHA_SITEKEY", ""); sitekey != "" {
		form.Set("sitekey", sitekey)
	}

	resp, err := client.PostForm(verifyURL, form)
	if err != nil {
		return false, fmt.Errorf("hcaptcha: siteverify request: %w", err)
	}
	defer resp.Body.Close()

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("hcaptcha: decoding siteverify response: %w", err)
	}

	if !result.Success {
		if len(result.ErrorCodes) > 0 {
			return false, fmt.Errorf("hcaptcha: rejected (%s)", strings.Join(result.ErrorCodes, ", "))
		}
		return false, errors.New("hcaptcha: rejected")
	}
	return true, nil
}
