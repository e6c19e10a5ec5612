package card

import (
	"fmt"

	"cktap/apdu"
	"cktap/transport"
	"cktap/wire"
)

// transmit encodes cmd, frames it as a command APDU, sends it over t, and
// decodes the response body into out. A status word of SW1MoreData is
// chased with GET RESPONSE command APDUs until the card reports SWSuccess,
// reassembling the full body before it is decoded. A non-success final
// status word surfaces as a *TransportError, and a CBOR body carrying an
// "error" field as a *CardStatusError, rather than a raw decode failure.
func transmit(t transport.Transport, codec *wire.Codec, cmd any, out any) error {
	body, err := codec.EncodeCommand(cmd)
	if err != nil {
		return err
	}

	framed, err := apdu.Frame(body)
	if err != nil {
		return err
	}

	raw, err := t.Transmit(framed)
	if err != nil {
		return &TransportError{Err: err}
	}

	resp, err := apdu.ParseResponse(raw)
	if err != nil {
		return err
	}

	var data []byte
	data = append(data, resp.Data...)
	for {
		le, more := resp.MoreData()
		if !more {
			break
		}
		raw, err := t.Transmit(apdu.FrameGetResponse(byte(le)))
		if err != nil {
			return &TransportError{Err: err}
		}
		resp, err = apdu.ParseResponse(raw)
		if err != nil {
			return err
		}
		data = append(data, resp.Data...)
	}
	if !resp.OK() {
		return &TransportError{Err: fmt.Errorf("unexpected status word %#04x", resp.SW)}
	}

	if err := codec.DecodeResponse(data, out); err != nil {
		var cardErr wire.ErrorResponse
		if decErr := codec.DecodeResponse(data, &cardErr); decErr == nil && cardErr.Error != "" {
			return &CardStatusError{Message: cardErr.Error, Code: cardErr.Code}
		}
		return err
	}

	return nil
}
