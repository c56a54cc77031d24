package hcaptcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuelReschke/Marktplatz/internal/pkg/env"
)

const defaultVerifyURL = "https://hcaptcha.com/siteverify"

// VerifyURL is overridden in tests
var VerifyURL = defaultVerifyURL

var httpClient = &http.Client{Timeout: 10 * time.Second}

type Response struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Enabled reports whether review forms must carry a captcha token
func Enabled() bool {
	return env.GetEnv("HCAPTCHA_SECRET", "") != ""
}

// SiteKey is rendered into the review form
func SiteKey() string {
	return env.GetEnv("HCAPTCHA_SITEKEY", "")
}

func Verify(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, errors.New("hCaptcha token is empty")
	}

	secret := env.GetEnv("HCAPTCHA_SECRET", "")
	if secret == "" {
		return false, errors.New("hCaptcha secret is not set")
	}

	formData := url.Values{
		"secret":   {secret},
		"response": {token},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, VerifyURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to send request to hCaptcha API: %v", err)
	}
	defer resp.Body.Close()

	var response Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return false, fmt.Errorf("failed to decode hCaptcha API response: %v", err)
	}

	if !response.Success {
		errorMsg := "hCaptcha validation failed"
		if len(response.ErrorCodes) > 0 {
			errorMsg = errorMsg + ": " + strings.Join(response.ErrorCodes, ", ")
		}
		return false, errors.New(errorMsg)
	}

	return true, nil
}
