// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"time"

	"github.com/amirphl/Ejare/app/dto"
	"github.com/amirphl/Ejare/app/services"
	"github.com/amirphl/Ejare/models"
	"github.com/amirphl/Ejare/utils"
)

const RequestIDKey = "X-Request-ID"

// TokenTypeBearer is reported to clients alongside issued tokens
const TokenTypeBearer = "Bearer"

// ClientMetadata holds all client-related information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// auditEvent stamps an event with the caller's client metadata
func auditEvent(action string, actorID *uint, targetType, targetID string, details map[string]any, meta *ClientMetadata) services.AuditEvent {
	event := services.AuditEvent{
		Action:     action,
		ActorID:    actorID,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		OccurredAt: utils.UTCNow(),
	}
	if meta != nil {
		event.IPAddress = meta.IPAddress
		event.UserAgent = meta.UserAgent
		event.RequestID = meta.RequestID
	}
	return event
}

// detached keeps request scoped values but drops the deadline, for work that outlives the request
func detached(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// ToAccountDTO converts an account to its public representation. The password hash never leaves the model.
func ToAccountDTO(account models.Account) dto.AccountDTO {
	out := dto.AccountDTO{
		ID:              account.ID,
		UUID:            account.UUID.String(),
		Email:           account.Email,
		Name:            account.Name,
		Role:            models.NormalizeRole(string(account.Role)).String(),
		Phone:           account.Phone,
		City:            account.City,
		IsActive:        utils.IsTrue(account.IsActive),
		IsEmailVerified: utils.IsTrue(account.IsEmailVerified),
		CreatedAt:       account.CreatedAt.UTC().Format(time.RFC3339),
	}
	if account.Profile != nil {
		profile := ToProfessionalProfileDTO(*account.Profile)
		out.Profile = &profile
	}
	return out
}

func ToProfessionalProfileDTO(profile models.ProfessionalProfile) dto.ProfessionalProfileDTO {
	return dto.ProfessionalProfileDTO{
		Kind:         string(profile.Kind),
		BusinessName: profile.BusinessName,
		Category:     profile.Category,
		Status:       string(profile.Status),
		IsVerified:   utils.IsTrue(profile.IsVerified),
	}
}

// toAuthResponse builds the response shared by registration, login and refresh
func toAuthResponse(account models.Account, pair *services.TokenPair) *dto.AuthResponse {
	return &dto.AuthResponse{
		Account:          ToAccountDTO(account),
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		TokenType:        TokenTypeBearer,
		ExpiresIn:        int(pair.AccessExpiresAt.Sub(pair.IssuedAt).Seconds()),
		RefreshExpiresIn: int(pair.RefreshExpiresAt.Sub(pair.IssuedAt).Seconds()),
	}
}

func tokenSubject(account models.Account) services.TokenSubject {
	return services.TokenSubject{
		AccountID: account.ID,
		UUID:      account.UUID.String(),
		Email:     account.Email,
		Role:      account.Role,
		Name:      account.Name,
	}
}
