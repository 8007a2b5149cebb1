package tracking

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/harborbox/dispatch-backend/pkg/config"
	"github.com/harborbox/dispatch-backend/pkg/enums"
)

func testConfig() config.TrackingConfig {
	return config.TrackingConfig{
		Secret:            "test-secret",
		Issuer:            "harborbox",
		ExpirationMinutes: 60,
	}
}

func TestMintAndVerifyRoundTrip(t *testing.T) {
	cfg := testConfig()
	apptID := uuid.New()
	trigger := enums.TriggerTaskArrival
	when := time.Now().UTC().Truncate(time.Second)

	signed, err := MintToken(cfg, time.Now(), TokenPayload{
		AppointmentID: apptID,
		CourierTaskID: "task-1",
		TriggerName:   &trigger,
		WebhookTime:   &when,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := VerifyToken(cfg, signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.AppointmentID != apptID {
		t.Fatalf("expected appointment %s got %s", apptID, claims.AppointmentID)
	}
	if claims.TriggerName == nil || *claims.TriggerName != enums.TriggerTaskArrival {
		t.Fatalf("trigger not round-tripped: %v", claims.TriggerName)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	cfg := testConfig()
	signed, err := MintToken(cfg, time.Now().Add(-2*time.Hour), TokenPayload{AppointmentID: uuid.New()})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := VerifyToken(cfg, signed); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signed, err := MintToken(testConfig(), time.Now(), TokenPayload{AppointmentID: uuid.New()})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	other := testConfig()
	other.Secret = "rotated"
	if _, err := VerifyToken(other, signed); err == nil {
		t.Fatal("expected signature mismatch to be rejected")
	}
}

func TestMintRequiresAppointment(t *testing.T) {
	if _, err := MintToken(testConfig(), time.Now(), TokenPayload{}); err == nil {
		t.Fatal("expected error for missing appointment id")
	}
}
