package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Relay
	FieldStreamer  = "streamer"
	FieldEventType = "event_type"
	FieldClientID  = "client_id"
	FieldGiftID    = "gift_id"

	// Service
	FieldService = "service"
)
