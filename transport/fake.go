package transport

import "fmt"

// Fake is a scripted Transport for tests: each Transmit call pops the next
// queued response, regardless of what was sent. Callers that need to
// react to the actual request bytes should set Handler instead.
type Fake struct {
	Responses [][]byte
	Handler   func(apdu []byte) ([]byte, error)

	Sent   [][]byte
	closed bool
}

// Transmit records the outgoing APDU and returns the next canned response,
// or delegates to Handler if one is set.
func (f *Fake) Transmit(apdu []byte) ([]byte, error) {
	f.Sent = append(f.Sent, apdu)

	if f.Handler != nil {
		return f.Handler(apdu)
	}

	if len(f.Responses) == 0 {
		return nil, fmt.Errorf("transport: fake has no more scripted responses")
	}
	resp := f.Responses[0]
	f.Responses = f.Responses[1:]
	return resp, nil
}

// Close marks the fake closed; it does not reject further Transmit calls.
func (f *Fake) Close() error {
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	return f.closed
}
