package models

import "time"

// VIPChannel is the messaging channel a fan opted into.
type VIPChannel string

const (
	ChannelTelegram VIPChannel = "TELEGRAM"
	ChannelWhatsApp VIPChannel = "WHATSAPP"
	ChannelSMS      VIPChannel = "SMS"
)

// IsValid returns true if the channel is recognized.
func (c VIPChannel) IsValid() bool {
	switch c {
	case ChannelTelegram, ChannelWhatsApp, ChannelSMS:
		return true
	}
	return false
}

// VIPStatus is the subscription state of a fan on a creator's VIP list.
type VIPStatus string

const (
	VIPActive       VIPStatus = "ACTIVE"
	VIPUnsubscribed VIPStatus = "UNSUBSCRIBED"
)

// VIPSubscription captures a fan on a creator's VIP list. A (creator, phone)
// pair holds at most one subscription; re-subscribing reactivates it.
type VIPSubscription struct {
	ID        string     `bson:"id" json:"id"`
	CreatorID string     `bson:"creator_id" json:"creator_id"`
	FanPhone  string     `bson:"fan_phone" json:"fan_phone"`
	FanName   string     `bson:"fan_name,omitempty" json:"fan_name,omitempty"`
	Channel   VIPChannel `bson:"channel" json:"channel"`
	Source    string     `bson:"source" json:"source"`
	SourceRef string     `bson:"source_ref,omitempty" json:"source_ref,omitempty"`
	Status    VIPStatus  `bson:"status" json:"status"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}
