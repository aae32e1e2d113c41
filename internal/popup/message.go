package popup

import "encoding/json"

// Control-message vocabulary exchanged with the popup side. Application
// payloads use their own types and pass through the controller verbatim.
const (
	// MsgInit is both the popup's readiness signal and the controller's
	// readiness acknowledgement. Two rounds of the same token.
	MsgInit = "popup.init"

	// MsgWindowRequested is the internal marker a caller posts while the
	// open sequence is still in flight. It is never treated as a premature
	// payload.
	MsgWindowRequested = "popup.window.requested"

	// MsgExtensionRequest is the tab side asking for the broadcast
	// identifier; MsgExtensionAck answers it.
	MsgExtensionRequest = "popup.extension.request"
	MsgExtensionAck     = "popup.extension.ack"

	// MsgUSBPermissions asks the extension host to open its permissions
	// page. Fire and forget.
	MsgUSBPermissions = "popup.extension.usb-permissions"
)

// Locator fragment suffixes appended before the surface opens.
const (
	SuffixLoading     = "#loading"
	SuffixUnsupported = "#unsupported"
)

// Message is one control or application payload envelope.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ExtensionAckPayload carries the broadcast identifier on the
// extension.request acknowledgement round.
type ExtensionAckPayload struct {
	BroadcastID string `json:"broadcast_id"`
}

func extensionAck(broadcastID string) Message {
	raw, _ := json.Marshal(ExtensionAckPayload{BroadcastID: broadcastID})
	return Message{Type: MsgExtensionAck, Payload: raw}
}
