package dto

// RegisterRequest represents the request payload for account registration
type RegisterRequest struct {
	Name       string  `json:"name" validate:"required,min=2,max=100" example:"Ana Silva"`
	Email      string  `json:"email" validate:"required,email,max=255" example:"ana@example.com"`
	Password   string  `json:"password" validate:"required,min=8,max=72,password_strength" example:"Str0ngP@ss!"`
	Role       string  `json:"role" validate:"required" example:"TENANT"`
	NationalID string  `json:"nationalId" validate:"required,min=5,max=20,alphanum" example:"12345678901"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,e164" example:"+351912345678"`
	Address    *string `json:"address,omitempty" validate:"omitempty,max=255" example:"Rua A, 100"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=100" example:"Lisbon"`

	// Professional roles only
	BusinessName *string `json:"businessName,omitempty" validate:"omitempty,max=150" example:"Ana Repairs"`
	Category     *string `json:"category,omitempty" validate:"omitempty,max=100" example:"plumbing"`
}

// LoginRequest represents the request payload for credential login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"ana@example.com"`
	Password string `json:"password" validate:"required,max=1024" example:"Str0ngP@ss!"`
}

// RefreshRequest carries a refresh token when the cookie is not available
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// VerifyEmailRequest carries the token delivered by the verification mail
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required,hexadecimal,len=64" example:"9f2c..."`
}

// ProfessionalProfileDTO is the public view of a provider profile
type ProfessionalProfileDTO struct {
	Kind         string `json:"kind" example:"SERVICE_PROVIDER"`
	BusinessName string `json:"businessName" example:"Ana Repairs"`
	Category     string `json:"category" example:"plumbing"`
	Status       string `json:"status" example:"PENDING_VERIFICATION"`
	IsVerified   bool   `json:"isVerified" example:"false"`
}

// AccountDTO is the sanitized account view. It never carries the password hash.
type AccountDTO struct {
	ID              uint                    `json:"id" example:"42"`
	UUID            string                  `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Email           string                  `json:"email" example:"ana@example.com"`
	Name            string                  `json:"name" example:"Ana Silva"`
	Role            string                  `json:"role" example:"TENANT"`
	Phone           *string                 `json:"phone,omitempty"`
	City            *string                 `json:"city,omitempty"`
	IsActive        bool                    `json:"isActive" example:"true"`
	IsEmailVerified bool                    `json:"isEmailVerified" example:"false"`
	CreatedAt       string                  `json:"createdAt" example:"2026-01-15T10:30:00Z"`
	Profile         *ProfessionalProfileDTO `json:"profile,omitempty"`
}

// AuthResponse is returned by registration, login and refresh
type AuthResponse struct {
	Account          AccountDTO `json:"account"`
	AccessToken      string     `json:"accessToken"`
	RefreshToken     string     `json:"refreshToken"`
	TokenType        string     `json:"tokenType" example:"Bearer"`
	ExpiresIn        int        `json:"expiresIn" example:"900"`
	RefreshExpiresIn int        `json:"refreshExpiresIn" example:"604800"`
}

// VerifyEmailResponse confirms a verified address
type VerifyEmailResponse struct {
	Account AccountDTO `json:"account"`
}

// MeResponse echoes the claims of the presented access token
type MeResponse struct {
	AccountID uint   `json:"accountId" example:"42"`
	UUID      string `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Email     string `json:"email" example:"ana@example.com"`
	Name      string `json:"name" example:"Ana Silva"`
	Role      string `json:"role" example:"TENANT"`
	ExpiresAt string `json:"expiresAt" example:"2026-01-15T10:45:00Z"`
}
