// Package transport carries raw APDU bytes to and from a cktap card. The
// PC/SC reader is the only real implementation; session and card logic
// depend only on the Transport interface so they can run against a fake in
// tests.
package transport

import (
	"fmt"

	"github.com/ebfe/scard"
)

// Transport sends a command APDU and returns the card's response APDU.
// Implementations do not interpret the bytes; framing and status-word
// handling live in the apdu package.
type Transport interface {
	Transmit(apdu []byte) ([]byte, error)
	Close() error
}

// PCSC is a Transport backed by a PC/SC smart card reader.
type PCSC struct {
	ctx  *scard.Context
	card *scard.Card
	name string
	atr  []byte
}

// ListReaders returns the names of available PC/SC readers.
func ListReaders() ([]string, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("transport: establish PC/SC context: %w", err)
	}
	defer ctx.Release()

	readers, err := ctx.ListReaders()
	if err != nil {
		return nil, fmt.Errorf("transport: list readers: %w", err)
	}
	return readers, nil
}

// Connect opens a PC/SC session with the reader at readerIndex.
func Connect(readerIndex int) (*PCSC, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("transport: establish PC/SC context: %w", err)
	}

	readers, err := ctx.ListReaders()
	if err != nil {
		ctx.Release()
		return nil, fmt.Errorf("transport: list readers: %w", err)
	}
	if len(readers) == 0 {
		ctx.Release()
		return nil, fmt.Errorf("transport: no smart card readers found")
	}
	if readerIndex < 0 || readerIndex >= len(readers) {
		ctx.Release()
		return nil, fmt.Errorf("transport: reader index %d out of range (0-%d)", readerIndex, len(readers)-1)
	}

	readerName := readers[readerIndex]
	card, err := ctx.Connect(readerName, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		ctx.Release()
		return nil, fmt.Errorf("transport: connect to card in reader %q: %w", readerName, err)
	}

	status, err := card.Status()
	if err != nil {
		card.Disconnect(scard.LeaveCard)
		ctx.Release()
		return nil, fmt.Errorf("transport: get card status: %w", err)
	}

	return &PCSC{ctx: ctx, card: card, name: readerName, atr: status.Atr}, nil
}

// FindFirst connects to the first reader that has a card present.
func FindFirst() (*PCSC, error) {
	readers, err := ListReaders()
	if err != nil {
		return nil, err
	}
	if len(readers) == 0 {
		return nil, fmt.Errorf("transport: no smart card readers found")
	}
	for i := range readers {
		if p, err := Connect(i); err == nil {
			return p, nil
		}
	}
	return nil, fmt.Errorf("transport: no card present in any of %d reader(s)", len(readers))
}

// Transmit sends raw APDU bytes to the card and returns the raw response.
func (p *PCSC) Transmit(apdu []byte) ([]byte, error) {
	resp, err := p.card.Transmit(apdu)
	if err != nil {
		return nil, fmt.Errorf("transport: transmit: %w", err)
	}
	return resp, nil
}

// Close disconnects from the card and releases the PC/SC context.
func (p *PCSC) Close() error {
	if p.card != nil {
		p.card.Disconnect(scard.LeaveCard)
	}
	if p.ctx != nil {
		p.ctx.Release()
	}
	return nil
}

// Name returns the reader name this transport is connected through.
func (p *PCSC) Name() string {
	return p.name
}

// ATRHex returns the card's Answer To Reset bytes as a hex string.
func (p *PCSC) ATRHex() string {
	return fmt.Sprintf("%X", p.atr)
}

// Reconnect resets the card in place. Cold performs a power cycle; warm
// just resets the protocol state. A cktap card rotates its card_nonce
// across a reconnect the same as across any command, so callers must
// re-fetch status afterward.
func (p *PCSC) Reconnect(cold bool) error {
	if p.card == nil {
		return fmt.Errorf("transport: no card connected")
	}

	disposition := scard.ResetCard
	if cold {
		disposition = scard.UnpowerCard
	}

	if err := p.card.Reconnect(scard.ShareShared, scard.ProtocolAny, disposition); err != nil {
		return fmt.Errorf("transport: reconnect: %w", err)
	}

	status, err := p.card.Status()
	if err == nil {
		p.atr = status.Atr
	}
	return nil
}
