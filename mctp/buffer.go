package mctp

// Wire framing bytes.
const (
	frameStart = 0x7E
	frameEnd   = 0x7E
	escapeByte = 0x7D
	escapeXor  = 0x20
)

// Absolute byte offsets into an unescaped frame buffer. Header and payload
// offsets are fixed; trailer offsets are relative to the body length N.
const (
	offStart       = 0
	offVersion     = 1
	offByteCount   = 2
	offHeaderVer   = 3
	offDestEID     = 4
	offSrcEID      = 5
	offFlags       = 6
	offMsgType     = 7
	offPayload     = 8
	offInstanceID  = offPayload     // first payload byte: Rq/D/rsvd/InstanceID
	offCommandCode = offPayload + 1 // second payload byte: command code

	// headerLen is the raw, unescaped, un-stuffed header: start, version,
	// byte count.
	headerLen = 3
	// trailerLen is the raw trailer: FCS high, FCS low, end flag.
	trailerLen = 3
	// frameOverhead is headerLen+trailerLen, matching spec's
	// "BASELINE_TRANSMISSION_UNIT + 6".
	frameOverhead = headerLen + trailerLen
)

// Flags byte bits (offset 6).
const (
	flagSOM        = 0x80
	flagEOM        = 0x40
	flagTagOwner   = 0x08
	flagMsgTagMask = 0x07
)

// Instance-ID byte bits (offset 8, first payload byte).
const (
	instanceRqBit = 0x80
)

// Message-type byte (offset 7) low nibble values.
const (
	msgTypeControlNibble = 0x00
	msgTypePLDMNibble    = 0x01
	msgTypeNibbleMask    = 0x0F
)

// Control command codes.
const (
	cmdSetEndpointID         = 0x01
	cmdGetEndpointID         = 0x02
	cmdGetMCTPVersionSupport = 0x04
	cmdGetMessageTypeSupport = 0x05
)

// Completion codes (§4.6).
const (
	ccSuccess        = 0x00
	ccError          = 0x01
	ccInvalidData    = 0x02
	ccInvalidLength  = 0x03
	ccNotReady       = 0x04
	ccUnsupportedCmd = 0x05
)

// Endpoint-ID sentinels (§3, §4.5.1).
const (
	eidUnassigned = 0x00
	eidBroadcast  = 0xFF
)

// DefaultBTU is the baseline transmission unit used unless overridden via
// NewEndpoint's options: the largest MCTP body this endpoint will frame.
const DefaultBTU = 64

// DefaultEventBufSize is the default capacity of the optional event slot.
const DefaultEventBufSize = 128

// bufCapacity returns the frame-buffer capacity for the given BTU.
func bufCapacity(btu int) int {
	return btu + frameOverhead
}
