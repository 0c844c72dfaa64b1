package mctp

// buildRequestFrame assembles a full, on-wire (escaped) MCTP control request
// frame: start flag, version, byte count, body (header version/dest/src/
// flags/type/instance id/command code/data), FCS, end flag. Only the body is byte-stuffed, to
// match how sendFrame's inPayloadRange scopes escaping to the payload alone.
func buildRequestFrame(destEID, srcEID, msgType, instanceID, cmd byte, data ...byte) []byte {
	body := []byte{0x01 /* header version */, destEID, srcEID, flagSOM | flagEOM | flagTagOwner, msgType, instanceID | instanceRqBit, cmd}
	body = append(body, data...)

	header := []byte{1 /* version */, byte(len(body))}
	fcs := fcsUpdate(fcsSeed, append(append([]byte{}, header...), body...))

	out := []byte{frameStart}
	out = append(out, header...)
	out = append(out, escapeBody(body)...)
	out = append(out, byte(fcs>>8), byte(fcs), frameEnd)
	return out
}

// escapeBody byte-stuffs 0x7E/0x7D occurrences within a payload slice.
func escapeBody(body []byte) []byte {
	out := make([]byte, 0, len(body))
	for _, b := range body {
		if b == frameStart || b == escapeByte {
			out = append(out, escapeByte, b^escapeXor)
		} else {
			out = append(out, b)
		}
	}
	return out
}
