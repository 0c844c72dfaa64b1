package mctp

// Control command request/response payload layout. Both request and
// response carry the instance-ID byte and the (echoed) command code at
// offInstanceID/offCommandCode; responses additionally carry a completion
// code immediately after the command code, at offResponseData.
const offResponseData = offCommandCode + 1

// MCTP base protocol version advertised for the control message type and
// (when compiled in) for PLDM.
var (
	controlVersion = [4]byte{1, 3, 1, 0}
	pldmVersion    = [4]byte{1, 0, 0, 0}
)

const versionSupportTypeNotSupported = 0x80

// supportedMessageTypes are the message types this endpoint always answers
// to: NC-SI, NVMe-MI, SPDM. PLDM (0x01) is reported separately, only when
// WithPLDM is set, so it isn't double-counted here.
var supportedMessageTypes = [3]byte{0x02, 0x04, 0x05}

// ProcessControlMessage dispatches the control command sitting in the
// shared buffer and rewrites the buffer in place into the matching
// response. The response is marked ready to send rather than sent
// unconditionally: a pending event still takes priority, and the response
// waits its turn instead of being silently dropped. If the transmitter
// can't drain the whole response in one burst (or drains an event first),
// the remainder is picked up by subsequent Update calls.
func (e *Endpoint) ProcessControlMessage() {
	cmd := e.buf[offCommandCode]

	var bodyLen int
	switch cmd {
	case cmdSetEndpointID:
		bodyLen = e.handleSetEndpointID()
	case cmdGetEndpointID:
		bodyLen = e.handleGetEndpointID()
	case cmdGetMCTPVersionSupport:
		bodyLen = e.handleGetVersionSupport()
	case cmdGetMessageTypeSupport:
		bodyLen = e.handleGetMessageTypeSupport()
	default:
		bodyLen = e.handleUnsupported()
	}

	e.finishResponse(bodyLen)
	e.recvState = stateResponseReady
	e.sendFrame()
}

// setResponseData writes data starting at the first response data byte and
// returns the resulting body length (the 7 fixed header/instance/command
// bytes plus len(data)).
func (e *Endpoint) setResponseData(data ...byte) int {
	copy(e.buf[offResponseData:], data)
	return (offResponseData - offHeaderVer) + len(data)
}

func (e *Endpoint) handleSetEndpointID() int {
	op := e.buf[offResponseData] & 0x03
	eid := e.buf[offResponseData+1]

	var completion, acceptance byte
	switch op {
	case 0x00, 0x01: // set / force
		if eid == eidUnassigned || eid == eidBroadcast {
			completion, acceptance = ccInvalidData, 0x10
		} else {
			completion, acceptance = ccSuccess, 0x00
			e.pendingEndpointID = eid
			e.pendingCommit = true
		}
	default: // 0x02 reset-to-static, 0x03 set-discovery-flag: unsupported
		completion, acceptance = ccInvalidData, 0x10
	}
	return e.setResponseData(completion, acceptance, e.endpointID, 0x00)
}

func (e *Endpoint) handleGetEndpointID() int {
	return e.setResponseData(ccSuccess, e.endpointID, 0x00 /* simple endpoint */)
}

func (e *Endpoint) handleGetVersionSupport() int {
	selector := e.buf[offResponseData]
	switch {
	case selector == 0x00 || selector == 0xFF:
		v := controlVersion
		return e.setResponseData(ccSuccess, 0x01, v[0], v[1], v[2], v[3])
	case selector == msgTypePLDMNibble && e.pldmEnabled:
		v := pldmVersion
		return e.setResponseData(ccSuccess, 0x01, v[0], v[1], v[2], v[3])
	default:
		return e.setResponseData(versionSupportTypeNotSupported, 0x00)
	}
}

func (e *Endpoint) handleGetMessageTypeSupport() int {
	var data [2 + len(supportedMessageTypes) + 1]byte
	n := copy(data[2:], supportedMessageTypes[:])
	if e.pldmEnabled {
		data[2+n] = msgTypePLDMNibble
		n++
	}
	data[0], data[1] = ccSuccess, byte(n)
	return e.setResponseData(data[:2+n]...)
}

func (e *Endpoint) handleUnsupported() int {
	return e.setResponseData(ccUnsupportedCmd)
}

// finishResponse applies the common request->response transforms and
// appends the FCS and end flag, leaving the buffer ready for sendFrame.
func (e *Endpoint) finishResponse(bodyLen int) {
	destWas, srcWas := e.buf[offDestEID], e.buf[offSrcEID]
	e.buf[offDestEID] = srcWas
	e.buf[offSrcEID] = destWas

	e.buf[offInstanceID] &^= instanceRqBit
	e.buf[offFlags] = (e.buf[offFlags] ^ flagTagOwner) | flagSOM | flagEOM

	e.buf[offByteCount] = byte(bodyLen)

	fcsRange := e.buf[offVersion : headerLen+bodyLen]
	fcs := fcsUpdate(fcsSeed, fcsRange)
	end := headerLen + bodyLen
	e.buf[end] = byte(fcs >> 8)
	e.buf[end+1] = byte(fcs)
	e.buf[end+2] = frameEnd
	e.writeIdx = end + 3
}

// applyPendingEndpointID commits a Set Endpoint ID request once the
// acceptance response has fully left the transmitter, rather than at
// dispatch time.
func (e *Endpoint) applyPendingEndpointID() {
	if e.pendingCommit {
		e.endpointID = e.pendingEndpointID
		e.pendingCommit = false
	}
}
