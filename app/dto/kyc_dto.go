package dto

// InitiateKYCRequest starts identity verification for the authenticated account
type InitiateKYCRequest struct {
	Level string `json:"level" validate:"omitempty,oneof=basic standard enhanced" example:"standard"`
}

// InitiateKYCResponse describes the verification session opened at the provider
type InitiateKYCResponse struct {
	SessionID    string   `json:"sessionId" example:"sess_8f2a"`
	Requirements []string `json:"requirements" example:"national_id_document,selfie"`
	ExpiresAt    string   `json:"expiresAt" example:"2026-01-16T10:30:00Z"`
}
