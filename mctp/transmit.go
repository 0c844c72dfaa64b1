package mctp

// sendFrame drains whichever slot is active (selecting one if none is) to
// the platform, byte by byte, escaping payload bytes as it goes. It never
// blocks: it returns the moment the platform can't accept another byte, or
// when the active slot completes. Reentrant — repeated calls resume
// exactly where the previous one left off, including mid-escape.
func (e *Endpoint) sendFrame() int {
	if e.activeSlot == slotNone {
		if !e.selectSlot() {
			return 0
		}
	}

	cur, buf := e.activeCursor()
	count := 0
	for {
		if !e.platform.CanWrite() {
			return count
		}
		if cur.escapePend {
			if err := e.platform.WriteByte(cur.escapeSecond); err != nil {
				return count
			}
			cur.escapePend = false
			cur.index++
			count++
		} else {
			b := buf[cur.index]
			if e.inPayloadRange(buf, cur.index) && (b == frameStart || b == escapeByte) {
				if err := e.platform.WriteByte(escapeByte); err != nil {
					return count
				}
				count++
				if !e.platform.CanWrite() {
					cur.escapePend = true
					cur.escapeSecond = b ^ escapeXor
					return count
				}
				if err := e.platform.WriteByte(b ^ escapeXor); err != nil {
					return count
				}
				cur.index++
				count++
			} else {
				if err := e.platform.WriteByte(b); err != nil {
					return count
				}
				cur.index++
				count++
			}
		}

		if cur.index >= cur.length {
			e.completeSlot()
			return count
		}
	}
}

// inPayloadRange reports whether idx falls inside the escaped range: after
// the 3-byte raw header and before the 3-byte raw trailer (FCS + end flag).
func (e *Endpoint) inPayloadRange(buf []byte, idx int) bool {
	if idx < headerLen {
		return false
	}
	bodyLen := int(buf[offByteCount])
	lastPayloadIdx := bodyLen + 2
	return idx <= lastPayloadIdx
}

// selectSlot picks the next slot to drain when the transmitter is
// currently idle: the event slot takes priority when it has a pending
// frame, otherwise a prepared response waiting on the primary buffer is
// picked up. Returns false if there is nothing to send.
func (e *Endpoint) selectSlot() bool {
	if e.eventEnabled && e.eventPending {
		e.eventPending = false
		e.eventTx.reset(e.eventLen)
		e.activeSlot = slotEvent
		return true
	}
	if e.recvState == stateResponseReady {
		total := int(e.buf[offByteCount]) + frameOverhead
		e.tx.reset(total)
		e.recvState = stateSending
		e.activeSlot = slotPrimary
		return true
	}
	return false
}

func (e *Endpoint) activeCursor() (*txCursor, []byte) {
	if e.activeSlot == slotEvent {
		return &e.eventTx, e.eventBuf
	}
	return &e.tx, e.buf
}

// completeSlot clears the finished slot's in-progress flags and, if it was
// the primary slot, frees the shared buffer for the receiver again.
func (e *Endpoint) completeSlot() {
	switch e.activeSlot {
	case slotPrimary:
		e.tx.active = false
		e.applyPendingEndpointID()
		e.recvState = stateWaitingForSync
		e.writeIdx = 0
	case slotEvent:
		e.eventTx.active = false
		e.eventLen = 0
	}
	e.activeSlot = slotNone
}

// SendEvent enqueues a prewritten, already-framed event datagram into the
// event slot. It never blocks: the frame is copied into the event buffer
// and drained opportunistically by subsequent Update/sendFrame calls.
// Returns SendEventSlotOccupied if a frame is already queued or in flight,
// SendEventFrameTooLarge if len(frame) exceeds the event buffer capacity.
func (e *Endpoint) SendEvent(frame []byte) int {
	if !e.eventEnabled {
		return SendEventSlotOccupied
	}
	if e.eventPending || e.eventTx.active {
		return SendEventSlotOccupied
	}
	if len(frame) > len(e.eventBuf) {
		return SendEventFrameTooLarge
	}
	copy(e.eventBuf, frame)
	e.eventLen = len(frame)
	e.eventPending = true
	return SendEventOK
}

// IsEventQueueEmpty reports whether the event slot has no frame queued or
// in flight.
func (e *Endpoint) IsEventQueueEmpty() bool {
	if !e.eventEnabled {
		return true
	}
	return !e.eventPending && !e.eventTx.active
}
