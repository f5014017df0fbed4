package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrKYCUnavailable wraps every failure to reach the identity verification provider
var ErrKYCUnavailable = errors.New("kyc provider unavailable")

// KYC verification levels
const (
	KYCLevelBasic    = "basic"
	KYCLevelStandard = "standard"
	KYCLevelEnhanced = "enhanced"
)

// KYCSession is the provider's answer to an initiation request
type KYCSession struct {
	SessionID    string    `json:"session_id"`
	Requirements []string  `json:"requirements"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// KYCProvider starts identity verification for an account
type KYCProvider interface {
	Name() string
	Initiate(ctx context.Context, accountID uint, level string) (*KYCSession, error)
}

// MockKYCProvider answers locally. Used in development and tests.
type MockKYCProvider struct {
	TTL time.Duration
}

func NewMockKYCProvider() *MockKYCProvider {
	return &MockKYCProvider{TTL: 24 * time.Hour}
}

func (p *MockKYCProvider) Name() string { return "mock" }

func (p *MockKYCProvider) Initiate(ctx context.Context, accountID uint, level string) (*KYCSession, error) {
	return &KYCSession{
		SessionID:    "mock-" + uuid.NewString(),
		Requirements: requirementsFor(level),
		ExpiresAt:    time.Now().UTC().Add(p.TTL),
	}, nil
}

func requirementsFor(level string) []string {
	switch level {
	case KYCLevelEnhanced:
		return []string{"national_id_document", "selfie", "proof_of_address"}
	case KYCLevelStandard:
		return []string{"national_id_document", "selfie"}
	default:
		return []string{"national_id_document"}
	}
}

// HTTPKYCClient calls a remote verification provider over JSON/HTTP
type HTTPKYCClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewHTTPKYCClient(baseURL, apiKey string, timeout time.Duration) *HTTPKYCClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPKYCClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPKYCClient) Name() string { return "http" }

type kycInitiateRequest struct {
	Reference string `json:"reference"`
	Level     string `json:"level"`
}

type kycInitiateResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    KYCSession `json:"data"`
}

func (c *HTTPKYCClient) Initiate(ctx context.Context, accountID uint, level string) (*KYCSession, error) {
	payload, err := json.Marshal(kycInitiateRequest{
		Reference: fmt.Sprintf("account-%d", accountID),
		Level:     level,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/sessions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKYCUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrKYCUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out kycInitiateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrKYCUnavailable, err)
	}
	if !out.Success || out.Data.SessionID == "" {
		return nil, fmt.Errorf("%w: %s", ErrKYCUnavailable, out.Message)
	}

	return &out.Data, nil
}
