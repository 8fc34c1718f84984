package upstream

// DecodeAction is the policy applied when a known upstream message type
// fails to decode during an active session.
type DecodeAction int

const (
	// DecodeActionWarn logs the failure at warn level; the session
	// continues. This is the default for unlisted message types.
	DecodeActionWarn DecodeAction = iota
	// DecodeActionIgnore silences a known decoder incompatibility to a
	// debug log line.
	DecodeActionIgnore
)

// toleratedDecodeFailures is the allow-list of upstream defects the
// relay deliberately swallows. The platform ships banner messages whose
// schema the decoder cannot parse; they carry nothing an overlay needs.
var toleratedDecodeFailures = map[string]DecodeAction{
	"WebcastInRoomBannerMessage": DecodeActionIgnore,
}

// DecodeFailureAction returns the policy for a decode failure of the
// given upstream message type.
func DecodeFailureAction(messageType string) DecodeAction {
	if action, ok := toleratedDecodeFailures[messageType]; ok {
		return action
	}
	return DecodeActionWarn
}
