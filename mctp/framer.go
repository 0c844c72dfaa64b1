package mctp

// feedByte is the receive framer's single state transition per invocation.
// It owns the shared frame buffer and never blocks.
func (e *Endpoint) feedByte(b byte) {
	switch e.recvState {
	case stateWaitingForSync:
		if b == frameStart {
			e.startFrame()
		}

	case stateHeader1:
		e.store(b)
		e.recvState = stateHeader2

	case stateHeader2:
		e.store(b)
		e.bodyRemaining = int(b)
		if e.writeIdx+e.bodyRemaining+trailerLen > e.bufCap {
			// Declared length would overrun the buffer: reject now, at the
			// moment the length is known, rather than retroactively.
			e.logDrop(ErrOversizeFrame)
			e.resetSync()
			return
		}
		e.recvState = stateBody

	case stateBody:
		switch b {
		case escapeByte:
			e.recvState = stateEscape
		case frameStart:
			e.startFrame()
		default:
			e.storeBodyByte(b)
		}

	case stateEscape:
		switch b {
		case 0x5D, 0x5E:
			e.storeBodyByte(b + escapeXor)
		case frameStart:
			e.startFrame()
		default:
			e.logDrop(ErrInvalidEscape)
			e.resetSync()
		}

	case stateFcs1:
		e.store(b)
		e.recvState = stateFcs2

	case stateFcs2:
		e.store(b)
		e.recvState = stateEnd

	case stateEnd:
		e.endFrame(b)

	case statePacketAvailable, stateResponseReady, stateSending:
		// Bytes arriving while a packet awaits dispatch, a response awaits
		// its turn to send, or the transmitter owns the buffer are
		// discarded by design.
	}
}

// startFrame (re)starts reassembly at a fresh 0x7E, whether from idle or as
// a mid-frame restart (an unexpected start flag always wins over whatever
// was being assembled).
func (e *Endpoint) startFrame() {
	e.buf[0] = frameStart
	e.writeIdx = 1
	e.bodyRemaining = 0
	e.recvState = stateHeader1
}

func (e *Endpoint) resetSync() {
	e.writeIdx = 0
	e.bodyRemaining = 0
	e.recvState = stateWaitingForSync
}

func (e *Endpoint) store(b byte) {
	e.buf[e.writeIdx] = b
	e.writeIdx++
}

// storeBodyByte appends one (already-unescaped) body byte and advances to
// Fcs1 once the declared body length is satisfied.
func (e *Endpoint) storeBodyByte(b byte) {
	e.store(b)
	e.bodyRemaining--
	if e.bodyRemaining == 0 {
		e.recvState = stateFcs1
	} else {
		e.recvState = stateBody
	}
}

// minValidFrameLen is the smallest total frame size (including header and
// trailer) accepted at the End state.
const minValidFrameLen = 11

// endFrame validates the trailing end flag, total length, FCS, and
// destination EID, in that order (the destination filter applies only
// after FCS verification).
func (e *Endpoint) endFrame(b byte) {
	if b != frameEnd {
		e.logDrop(ErrBadTrailer)
		e.resetSync()
		return
	}
	e.store(b)
	total := e.writeIdx

	bodyLen := int(e.buf[offByteCount])
	if total < minValidFrameLen || bodyLen != total-frameOverhead {
		e.logDrop(ErrShortFrame)
		e.resetSync()
		return
	}

	fcsRange := e.buf[offVersion : headerLen+bodyLen]
	want := fcsUpdate(fcsSeed, fcsRange)
	gotFCS := uint16(e.buf[total-3])<<8 | uint16(e.buf[total-2])
	if want != gotFCS {
		e.logDrop(ErrBadFCS)
		e.resetSync()
		return
	}

	dest := e.buf[offDestEID]
	if dest != eidUnassigned && dest != eidBroadcast && dest != e.endpointID {
		e.logDrop(ErrDestinationMismatch)
		e.resetSync()
		return
	}

	e.recvState = statePacketAvailable
}
