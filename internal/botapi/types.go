package botapi

import "encoding/json"

// Stats is the fleet-wide summary shown on the landing page.
type Stats struct {
	TotalServers int64 `json:"totalServers"`
	TotalMembers int64 `json:"totalMembers"`
}

// Commands is the public command reference.
type Commands struct {
	Commands      json.RawMessage `json:"commands"`
	Categories    json.RawMessage `json:"categories"`
	TotalCommands int64           `json:"totalCommands"`
}

// Guild is one Discord server the bot can see. Settings payloads vary per
// module so they stay opaque.
type Guild struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Icon     string          `json:"icon"`
	Features []string        `json:"features"`
	Settings json.RawMessage `json:"settings,omitempty"`
}

// ProxyResult is a verbatim upstream reply relayed to the dashboard caller.
type ProxyResult struct {
	Status int
	Body   []byte
}
