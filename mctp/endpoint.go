package mctp

import (
	"github.com/sirupsen/logrus"
)

// Endpoint is the single context every core entry point hangs off of: it
// owns the one shared frame buffer, the optional event slot, and the
// endpoint's configured EID.
type Endpoint struct {
	platform Platform
	log      logrus.FieldLogger

	btu    int
	bufCap int
	buf    []byte

	recvState     recvState
	writeIdx      int
	bodyRemaining int

	endpointID        byte
	pendingEndpointID byte
	pendingCommit     bool

	tx         txCursor
	activeSlot activeSlot

	eventEnabled bool
	eventBuf     []byte
	eventPending bool
	eventLen     int
	eventTx      txCursor

	pldmEnabled bool
}

// Option configures a new Endpoint.
type Option func(*Endpoint)

// WithBTU overrides the baseline transmission unit (default DefaultBTU).
func WithBTU(btu int) Option {
	return func(e *Endpoint) { e.btu = btu }
}

// WithEventSlot enables the optional event-transmit slot with the given
// buffer capacity (default DefaultEventBufSize when size <= 0).
func WithEventSlot(size int) Option {
	return func(e *Endpoint) {
		e.eventEnabled = true
		if size <= 0 {
			size = DefaultEventBufSize
		}
		e.eventBuf = make([]byte, size)
	}
}

// WithPLDM enables the PLDM message-type affordance in version and
// message-type-support responses. It does not enable PLDM payload
// processing, which this core does not do.
func WithPLDM() Option {
	return func(e *Endpoint) { e.pldmEnabled = true }
}

// WithLogger attaches a logger for diagnostics (dropped frames, accepted
// commands). Defaults to a logger that discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Endpoint) { e.log = l }
}

// WithEndpointID seeds the initial endpoint ID (default 0x00, unprogrammed).
func WithEndpointID(eid byte) Option {
	return func(e *Endpoint) { e.endpointID = eid }
}

// NewEndpoint builds an Endpoint bound to platform with the given options.
func NewEndpoint(platform Platform, opts ...Option) *Endpoint {
	e := &Endpoint{
		platform: platform,
		btu:      DefaultBTU,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.bufCap = bufCapacity(e.btu)
	e.buf = make([]byte, e.bufCap)
	if e.log == nil {
		discard := logrus.New()
		discard.SetOutput(discardWriter{})
		e.log = discard
	}
	return e
}

// Init resets the framer to WaitingForSync and performs one-time platform
// setup.
func (e *Endpoint) Init() error {
	e.resetSync()
	e.activeSlot = slotNone
	e.tx = txCursor{}
	e.eventTx = txCursor{}
	e.eventPending = false
	e.eventLen = 0
	e.pendingCommit = false
	return e.platform.Init()
}

// Update advances exactly one unit of work: a transmit burst if the
// transmitter has (or can pick up) something to send, otherwise at most one
// received byte. It never blocks.
func (e *Endpoint) Update() error {
	if e.hasTransmitWork() {
		e.sendFrame()
		return nil
	}
	if e.recvState == statePacketAvailable {
		return nil
	}
	if !e.platform.HasData() {
		return nil
	}
	b, err := e.platform.ReadByte()
	if err != nil {
		return err
	}
	e.feedByte(b)
	return nil
}

// hasTransmitWork reports whether sendFrame has something to do right now:
// a send already in progress, a prepared response awaiting its turn, or a
// queued/in-flight event. A bare statePacketAvailable does not count — an
// undispatched request is not transmit work until ProcessControlMessage
// turns it into a response.
func (e *Endpoint) hasTransmitWork() bool {
	if e.recvState == stateSending || e.recvState == stateResponseReady {
		return true
	}
	if e.eventEnabled && (e.eventPending || e.eventTx.active) {
		return true
	}
	return e.activeSlot != slotNone
}

// HasTransmitWork reports whether the transmitter has something to do right
// now — a send in progress, a prepared response awaiting its turn behind an
// event, or a queued/in-flight event. A caller deciding whether it's safe to
// idle until the platform has more input should check this in addition to
// IsEventQueueEmpty and IsPacketAvailable.
func (e *Endpoint) HasTransmitWork() bool {
	return e.hasTransmitWork()
}

// IsPacketAvailable reports whether a fully validated frame is waiting to
// be dispatched.
func (e *Endpoint) IsPacketAvailable() bool {
	return e.recvState == statePacketAvailable
}

// IsControlPacket reports whether the pending packet's message type is the
// control message type (low nibble 0).
func (e *Endpoint) IsControlPacket() bool {
	return e.buf[offMsgType]&msgTypeNibbleMask == msgTypeControlNibble
}

// IsPLDMPacket reports whether the pending packet's message type is PLDM
// (low nibble 1).
func (e *Endpoint) IsPLDMPacket() bool {
	return e.buf[offMsgType]&msgTypeNibbleMask == msgTypePLDMNibble
}

// IgnorePacket drops the pending packet without responding, returning the
// framer to WaitingForSync. Intended for use by an external watchdog or by
// a caller that decided not to answer a non-control packet this core does
// not process (e.g. PLDM payloads, which are out of scope).
func (e *Endpoint) IgnorePacket() {
	e.resetSync()
}

// EndpointID returns the endpoint's currently effective address.
func (e *Endpoint) EndpointID() byte {
	return e.endpointID
}

func (e *Endpoint) logDrop(reason error) {
	e.log.WithError(reason).Debug("mctp: dropping frame")
}

// discardWriter is a zero-allocation io.Writer sink for the default
// logger, so unit tests and library callers that never call WithLogger get
// silence rather than noise on stderr.
type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
