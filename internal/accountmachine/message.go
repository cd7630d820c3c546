package accountmachine

// MessageType is the wire-level bilateral message kind exchanged between
// two AccountMachines (spec §4.4's propose/ack/reject transitions,
// carried over the accountInput EntityTx, spec §3).
type MessageType int

const (
	MsgPropose MessageType = iota + 1
	MsgAck
	MsgReject
)

func (t MessageType) String() string {
	switch t {
	case MsgPropose:
		return "propose"
	case MsgAck:
		return "ack"
	case MsgReject:
		return "reject"
	default:
		return "unknown"
	}
}

// Message is one bilateral protocol message. Frame is populated for
// MsgPropose; Height identifies the frame being acked or rejected for
// MsgAck/MsgReject.
type Message struct {
	Type   MessageType
	Frame  Frame
	Height uint64
}
