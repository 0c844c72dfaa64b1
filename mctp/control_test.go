package mctp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// dispatch feeds a built request frame through the framer, processes it as
// a control message, and drains the transmitter into p.tx.
func dispatch(t *testing.T, e *Endpoint, p *fakePlatform, frame []byte) {
	t.Helper()
	p.feed(frame...)
	pump(e, p, len(frame))
	require.True(t, e.IsPacketAvailable())
	require.True(t, e.IsControlPacket())
	// ProcessControlMessage's internal sendFrame call fully drains the
	// response in one shot since the fake platform has an unlimited write
	// budget by default.
	e.ProcessControlMessage()
}

func TestControlGetEndpointID(t *testing.T) {
	e, p := newTestEndpoint(t, WithEndpointID(0x42))
	frame := buildRequestFrame(0x42, 0x09, msgTypeControlNibble, 0x01, cmdGetEndpointID)

	dispatch(t, e, p, frame)

	require.Equal(t, byte(ccSuccess), p.tx[offResponseData])
	require.Equal(t, byte(0x42), p.tx[offResponseData+1])
	require.Equal(t, byte(0x00), p.tx[offResponseData+2])
	// Addressing swapped: responder (0x42) is now the source, requester
	// (0x09) is now the destination.
	require.Equal(t, byte(0x09), p.tx[offDestEID])
	require.Equal(t, byte(0x42), p.tx[offSrcEID])
	require.Equal(t, stateWaitingForSync, e.recvState)
}

func TestControlSetEndpointIDSuccessCommitsAfterDrain(t *testing.T) {
	e, p := newTestEndpoint(t, WithEndpointID(0x00))
	frame := buildRequestFrame(0x00, 0x09, msgTypeControlNibble, 0x01, cmdSetEndpointID, 0x00, 0x08)

	dispatch(t, e, p, frame)

	require.Equal(t, byte(ccSuccess), p.tx[offResponseData])
	require.Equal(t, byte(0x00), p.tx[offResponseData+1]) // acceptance: accepted
	require.Equal(t, byte(0x08), e.EndpointID())
}

func TestControlSetEndpointIDRejectsReservedValues(t *testing.T) {
	e, p := newTestEndpoint(t, WithEndpointID(0x05))
	frame := buildRequestFrame(0x05, 0x09, msgTypeControlNibble, 0x01, cmdSetEndpointID, 0x00, eidBroadcast)

	dispatch(t, e, p, frame)

	require.Equal(t, byte(ccInvalidData), p.tx[offResponseData])
	require.Equal(t, byte(0x05), e.EndpointID()) // unchanged
}

func TestControlGetMCTPVersionSupportBaseSelector(t *testing.T) {
	e, p := newTestEndpoint(t, WithEndpointID(0x05))
	frame := buildRequestFrame(0x05, 0x09, msgTypeControlNibble, 0x01, cmdGetMCTPVersionSupport, 0xFF)

	dispatch(t, e, p, frame)

	require.Equal(t, byte(ccSuccess), p.tx[offResponseData])
	require.Equal(t, byte(0x01), p.tx[offResponseData+1])
	require.Equal(t, controlVersion[:], p.tx[offResponseData+2:offResponseData+6])
}

func TestControlGetMCTPVersionSupportPLDMWithoutAffordance(t *testing.T) {
	e, p := newTestEndpoint(t, WithEndpointID(0x05)) // no WithPLDM
	frame := buildRequestFrame(0x05, 0x09, msgTypeControlNibble, 0x01, cmdGetMCTPVersionSupport, msgTypePLDMNibble)

	dispatch(t, e, p, frame)

	require.Equal(t, byte(versionSupportTypeNotSupported), p.tx[offResponseData])
}

func TestControlGetMCTPVersionSupportPLDMWithAffordance(t *testing.T) {
	e, p := newTestEndpoint(t, WithEndpointID(0x05), WithPLDM())
	frame := buildRequestFrame(0x05, 0x09, msgTypeControlNibble, 0x01, cmdGetMCTPVersionSupport, msgTypePLDMNibble)

	dispatch(t, e, p, frame)

	require.Equal(t, byte(ccSuccess), p.tx[offResponseData])
	require.Equal(t, pldmVersion[:], p.tx[offResponseData+2:offResponseData+6])
}

func TestControlGetMessageTypeSupport(t *testing.T) {
	e, p := newTestEndpoint(t, WithEndpointID(0x05))
	frame := buildRequestFrame(0x05, 0x09, msgTypeControlNibble, 0x01, cmdGetMessageTypeSupport)

	dispatch(t, e, p, frame)

	require.Equal(t, byte(ccSuccess), p.tx[offResponseData])
	require.Equal(t, byte(len(supportedMessageTypes)), p.tx[offResponseData+1])
	require.Equal(t, supportedMessageTypes[:], p.tx[offResponseData+2:offResponseData+2+len(supportedMessageTypes)])
}

func TestControlGetMessageTypeSupportIncludesPLDMWhenEnabled(t *testing.T) {
	e, p := newTestEndpoint(t, WithEndpointID(0x05), WithPLDM())
	frame := buildRequestFrame(0x05, 0x09, msgTypeControlNibble, 0x01, cmdGetMessageTypeSupport)

	dispatch(t, e, p, frame)

	n := len(supportedMessageTypes) + 1
	require.Equal(t, byte(n), p.tx[offResponseData+1])
	require.Equal(t, byte(msgTypePLDMNibble), p.tx[offResponseData+2+len(supportedMessageTypes)])
}

// TestControlGetEndpointIDLiteralWireVector feeds the exact byte sequence
// worked by hand: 7E 01 07 01 00 08 C8 00 80 02 <fcs_hi> <fcs_lo> 7E.
func TestControlGetEndpointIDLiteralWireVector(t *testing.T) {
	e, p := newTestEndpoint(t, WithEndpointID(0x2A))
	body := []byte{0x01, 0x00, 0x08, 0xC8, 0x00, 0x80, 0x02}
	fcs := fcsUpdate(fcsSeed, append([]byte{0x01, byte(len(body))}, body...))
	frame := []byte{frameStart, 0x01, byte(len(body))}
	frame = append(frame, body...)
	frame = append(frame, byte(fcs>>8), byte(fcs), frameEnd)

	dispatch(t, e, p, frame)

	require.Equal(t, byte(0x00), p.tx[10])
	require.Equal(t, byte(0x2A), p.tx[11]) // current EID
	require.Equal(t, byte(0x00), p.tx[12])
}

// TestControlSetEndpointIDThenAddressedQuery mirrors the chained scenario:
// a successful Set Endpoint ID is followed by a Get Endpoint ID addressed to
// the newly assigned EID, which must now be answered.
func TestControlSetEndpointIDThenAddressedQuery(t *testing.T) {
	e, p := newTestEndpoint(t, WithEndpointID(0x00))
	setFrame := buildRequestFrame(0x00, 0x09, msgTypeControlNibble, 0x01, cmdSetEndpointID, 0x01, 0x09)
	dispatch(t, e, p, setFrame)

	require.Equal(t, byte(ccSuccess), p.tx[offResponseData])
	require.Equal(t, byte(0x00), p.tx[offResponseData+1])
	require.Equal(t, byte(0x09), e.EndpointID())

	p.tx = nil
	getFrame := buildRequestFrame(0x09, 0x0A, msgTypeControlNibble, 0x02, cmdGetEndpointID)
	dispatch(t, e, p, getFrame)

	require.Equal(t, byte(ccSuccess), p.tx[offResponseData])
	require.Equal(t, byte(0x09), p.tx[offResponseData+1])
}

// TestControlResponseWaitsBehindPendingEvent covers a request dispatched
// while an event is already queued: the response must be built once, sent
// only after the event drains, and never re-rewritten by a stray second
// ProcessControlMessage call triggered by a stale IsPacketAvailable.
func TestControlResponseWaitsBehindPendingEvent(t *testing.T) {
	e, p := newTestEndpoint(t, WithEndpointID(0x42), WithEventSlot(32))
	frame := buildRequestFrame(0x42, 0x09, msgTypeControlNibble, 0x01, cmdGetEndpointID)
	p.feed(frame...)
	pump(e, p, len(frame))
	require.True(t, e.IsPacketAvailable())

	event := buildRawFrame(0xAA, 0xBB)
	require.Equal(t, SendEventOK, e.SendEvent(event))

	e.ProcessControlMessage()
	require.False(t, e.IsPacketAvailable())
	require.Equal(t, stateResponseReady, e.recvState)
	require.Equal(t, len(event), len(p.tx))
	require.True(t, e.IsEventQueueEmpty())

	pump(e, p, 32)

	require.Equal(t, stateWaitingForSync, e.recvState)
	// The Get Endpoint ID response carries three more body bytes than the
	// request: completion code, current EID, endpoint type.
	require.Equal(t, len(event)+len(frame)+3, len(p.tx))
	require.Equal(t, byte(ccSuccess), p.tx[len(event)+offResponseData])
	require.Equal(t, byte(0x42), p.tx[len(event)+offResponseData+1])
}

func TestControlUnsupportedCommandFallsBack(t *testing.T) {
	e, p := newTestEndpoint(t, WithEndpointID(0x05))
	frame := buildRequestFrame(0x05, 0x09, msgTypeControlNibble, 0x01, 0x7F)

	dispatch(t, e, p, frame)

	require.Equal(t, byte(ccUnsupportedCmd), p.tx[offResponseData])
}
