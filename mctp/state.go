package mctp

// recvState is the receive framer's state tag, kept separate from
// transmit progress: receive and transmit are two state machines guarded
// by one buffer, not one tag overloaded to mean both.
type recvState int

const (
	stateWaitingForSync recvState = iota
	stateHeader1
	stateHeader2
	stateBody
	stateEscape
	stateFcs1
	stateFcs2
	stateEnd
	statePacketAvailable
	stateResponseReady
	stateSending
)

func (s recvState) String() string {
	switch s {
	case stateWaitingForSync:
		return "WaitingForSync"
	case stateHeader1:
		return "Header1"
	case stateHeader2:
		return "Header2"
	case stateBody:
		return "Body"
	case stateEscape:
		return "Escape"
	case stateFcs1:
		return "Fcs1"
	case stateFcs2:
		return "Fcs2"
	case stateEnd:
		return "End"
	case statePacketAvailable:
		return "PacketAvailable"
	case stateResponseReady:
		return "ResponseReady"
	case stateSending:
		return "Sending"
	default:
		return "Unknown"
	}
}

// txCursor is a resumable, per-byte escape-emitting send cursor over one
// frame buffer (primary or event). It is the "Sending" half of the
// transmit state.
type txCursor struct {
	active       bool
	length       int  // total bytes to emit, including header/trailer
	index        int  // next byte to emit
	escapePend   bool // a stuffed second byte is queued
	escapeSecond byte
}

func (c *txCursor) reset(length int) {
	c.active = true
	c.length = length
	c.index = 0
	c.escapePend = false
	c.escapeSecond = 0
}

// activeSlot names which buffer the transmitter is currently draining.
type activeSlot int

const (
	slotNone activeSlot = iota
	slotPrimary
	slotEvent
)
