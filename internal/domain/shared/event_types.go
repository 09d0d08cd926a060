package shared

// EventType identifies the economy operation recorded in the event history
type EventType string

const (
	EventTypeTransfer       EventType = "TRANSFER"
	EventTypeAdminAdjust    EventType = "ADMIN_ADJUST"
	EventTypePurchase       EventType = "PURCHASE"
	EventTypeListingCreated EventType = "LISTING_CREATED"
	EventTypeAccountLinked  EventType = "ACCOUNT_LINKED"
	EventTypeItemQueued     EventType = "ITEM_QUEUED"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
