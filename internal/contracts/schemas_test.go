package contracts

import (
	"testing"

	"listing-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKeyFromPath(t *testing.T) {
	assert.Equal(t, "RoomCreatedEvent/1.0.0", generateKeyFromPath("events", "Event", "events/room-created/v1.json"))
	assert.Equal(t, "SignInRequest/2.0.0", generateKeyFromPath("requests", "Request", "requests/sign-in/v2.json"))
	assert.Empty(t, generateKeyFromPath("events", "Event", "events/v1.json"))
}

func TestValidateEvent(t *testing.T) {
	valid := []byte(`{"apartment_id":"a1","room_id":"r1","occurred_at":"2025-03-01T10:00:00Z"}`)
	assert.NoError(t, ValidateEvent(domain.EventRoomCreated, domain.EventVersionV1, valid))

	assert.Error(t, ValidateEvent(domain.EventRoomCreated, domain.EventVersionV1, []byte(`{"apartment_id":"a1"}`)))
	assert.Error(t, ValidateEvent(domain.EventApartmentCreated, domain.EventVersionV1, []byte(`{"apartment_id":"a1","occurred_at":"yesterday"}`)))
	assert.Error(t, ValidateEvent(domain.EventApartmentCreated, domain.EventVersionV1, []byte(`not json`)))
	assert.ErrorContains(t, ValidateEvent("UnknownEvent", "1.0.0", valid), "not found")
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest("CreateApartmentRequest", []byte(`{"name":"Loft","location":"Berlin","price":900}`)))
	assert.Error(t, ValidateRequest("CreateApartmentRequest", []byte(`{"name":"Loft","location":"Berlin","price":"900"}`)))
	assert.Error(t, ValidateRequest("SignInRequest", []byte(`{"email":"a@b.c"}`)))
	assert.NoError(t, ValidateRequest("UpdateCriteriaRequest", []byte(`{"location":"ber","max_price":""}`)))
	assert.Error(t, ValidateRequest("RequestPageRequest", []byte(`{"page":1.5}`)))
}
