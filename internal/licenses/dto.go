package licenses

import (
	"encoding/json"

	"github.com/kythia/dashboard-backend/pkg/types"
)

// GenerateInput carries the owner identity a new license is issued to.
type GenerateInput struct {
	OwnerID string `json:"ownerId"`
}

// PatchInput is a partial admin update. Each field distinguishes
// "absent" from "present with null": absent fields are left untouched,
// null clears the column. Clearing boundClientId, ipAddress and hwid in
// one call is how an admin resets a binding.
type PatchInput struct {
	IsActive      types.Optional[bool]   `json:"isActive"`
	BoundClientID types.Optional[string] `json:"boundClientId"`
	IPAddress     types.Optional[string] `json:"ipAddress"`
	HWID          types.Optional[string] `json:"hwid"`
	Config        types.Optional[string] `json:"config"`
}

// VerifyInput is the payload a running bot presents on its periodic check-in.
// HWID and Config are opaque JSON documents stored verbatim.
type VerifyInput struct {
	Key      string          `json:"key"`
	HWID     json.RawMessage `json:"hwid"`
	Config   json.RawMessage `json:"config"`
	ClientID string          `json:"clientId"`
}

// VerifyResult is the successful outcome of a verification call.
type VerifyResult struct {
	Owner string
}

// TelemetryEntry is one bot-reported event.
type TelemetryEntry struct {
	Level    string          `json:"level"`
	Message  string          `json:"message"`
	Metadata json.RawMessage `json:"metadata"`
}

// TelemetryBatch is the logs field of a telemetry request. Bots in the
// field have shipped malformed payloads; anything that is not a JSON
// array decodes as an empty batch instead of failing the request.
type TelemetryBatch []TelemetryEntry

func (b *TelemetryBatch) UnmarshalJSON(data []byte) error {
	var entries []TelemetryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		*b = nil
		return nil
	}
	*b = entries
	return nil
}

// TelemetryInput is a key-authenticated batch of telemetry entries.
type TelemetryInput struct {
	Key  string         `json:"key"`
	Logs TelemetryBatch `json:"logs"`
}
