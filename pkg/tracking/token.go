package tracking

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/harborbox/dispatch-backend/pkg/config"
	"github.com/harborbox/dispatch-backend/pkg/enums"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// TokenPayload captures the data available when minting a tracking token.
type TokenPayload struct {
	AppointmentID uuid.UUID
	CourierTaskID string
	// TriggerName/WebhookTime are legacy fields: older tokens round-tripped
	// the latest webhook event through the client. The server-persisted
	// event record is authoritative; these are only read as a lower bound.
	TriggerName *enums.TriggerName
	WebhookTime *time.Time
	ETA         *time.Time
}

// TokenClaims is the signed payload granting read access to one
// appointment's tracking view.
type TokenClaims struct {
	AppointmentID uuid.UUID          `json:"appointment_id"`
	CourierTaskID string             `json:"task_id,omitempty"`
	TriggerName   *enums.TriggerName `json:"trigger_name,omitempty"`
	WebhookTime   *time.Time         `json:"webhook_time,omitempty"`
	ETA           *time.Time         `json:"eta,omitempty"`
	jwt.RegisteredClaims
}

// MintToken issues a signed tracking token using the configured TTL.
func MintToken(cfg config.TrackingConfig, now time.Time, payload TokenPayload) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("tracking secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("tracking issuer is required")
	}
	if cfg.ExpirationMinutes <= 0 {
		return "", fmt.Errorf("tracking expiration minutes must be positive")
	}
	if payload.AppointmentID == uuid.Nil {
		return "", fmt.Errorf("appointment id is required")
	}
	if payload.TriggerName != nil && !payload.TriggerName.IsValid() {
		return "", fmt.Errorf("invalid trigger name %q", *payload.TriggerName)
	}

	claims := TokenClaims{
		AppointmentID: payload.AppointmentID,
		CourierTaskID: payload.CourierTaskID,
		TriggerName:   payload.TriggerName,
		WebhookTime:   payload.WebhookTime,
		ETA:           payload.ETA,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL())),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing tracking token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates the token string and returns typed claims.
// Verification fails closed: expiry and signature mismatch both reject.
func VerifyToken(cfg config.TrackingConfig, tokenString string) (*TokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("tracking secret is required")
	}

	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}

	return claims, nil
}
