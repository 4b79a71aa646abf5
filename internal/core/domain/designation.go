package domain

import "time"

// Designation is the durable description of a pegged channel, reloaded at startup.
type Designation struct {
	ChannelID      ChannelID    `json:"channel_id"`
	Counterparty   NodeID       `json:"counterparty"`
	Role           Role         `json:"role"`
	ExpectedFiat   FiatAmount   `json:"expected_fiat"`
	ExpectedNative NativeAmount `json:"expected_native_sat"`
	RiskLevel      int          `json:"risk_level"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
