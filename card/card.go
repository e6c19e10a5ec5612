// Package card implements the cktap card state machines: the sealed-slot
// lifecycle of a SatsCard and the single-slot derivation lifecycle shared
// by TapSigner and SatsChip. A caller never constructs these directly —
// FindFirst probes a transport, takes an unauthenticated status reading,
// and returns the concrete variant the card reports.
package card

import (
	"fmt"

	"cktap/cktapcrypto"
	"cktap/session"
	"cktap/transport"
	"cktap/wire"
)

// Kind distinguishes the two state machines a physical card can run.
// TapSigner and SatsChip share one implementation and state machine in
// this library — the wire protocol carries no field to tell them apart,
// so Kind is cosmetic only and defaults to KindTapSigner; see DESIGN.md.
type Kind int

const (
	KindSatsCard Kind = iota
	KindTapSigner
)

func (k Kind) String() string {
	if k == KindSatsCard {
		return "satscard"
	}
	return "tapsigner"
}

// Card is the common surface both variants expose: the status fields
// every card reports plus certificate-chain verification and the
// auth-delay wait loop.
type Card interface {
	Kind() Kind
	Proto() int
	Version() string
	Birth() int
	AuthDelay() int
	Refresh() error
	Certs(appNonce []byte) (rootName string, err error)
	Wait() (remaining int, err error)
}

// FindFirst takes an unauthenticated status reading over t and returns
// the concrete card variant: a *SatsCard when the response carries slot
// state, a *Signer otherwise.
func FindFirst(t transport.Transport) (Card, error) {
	codec, err := wire.NewCodec()
	if err != nil {
		return nil, err
	}

	var status wire.StatusResponse
	if err := transmit(t, codec, wire.NewStatusCommand(), &status); err != nil {
		return nil, err
	}

	pubkey, err := cktapcrypto.ParsePubkey(status.Pubkey)
	if err != nil {
		return nil, &CryptoError{Reason: fmt.Sprintf("status pubkey: %v", err)}
	}

	b := base{
		transport: t,
		codec:     codec,
		sess:      session.New(pubkey, status.CardNonce, status.AuthDelay),
		pubkey:    pubkey,
		proto:     status.Proto,
		ver:       status.Ver,
		birth:     status.Birth,
	}

	if status.Slots != nil {
		return newSatsCard(b, status), nil
	}
	return newSigner(b, status), nil
}

// base holds the fields and helpers common to both card variants.
type base struct {
	transport transport.Transport
	codec     *wire.Codec
	sess      *session.Session
	pubkey    *cktapcrypto.PublicKey

	proto int
	ver   string
	birth int
}

func (b *base) Proto() int      { return b.proto }
func (b *base) Version() string { return b.ver }
func (b *base) Birth() int      { return b.birth }
func (b *base) AuthDelay() int  { return b.sess.AuthDelay() }

// refreshStatus re-issues an unauthenticated status command and updates
// the fields every card variant shares. It also rolls the session nonce
// forward to the reply's card_nonce and records its auth_delay.
func (b *base) refreshStatus() (wire.StatusResponse, error) {
	var status wire.StatusResponse
	if err := transmit(b.transport, b.codec, wire.NewStatusCommand(), &status); err != nil {
		return status, err
	}
	b.proto = status.Proto
	b.ver = status.Ver
	b.birth = status.Birth
	b.sess.AdvanceNonce(status.CardNonce)
	b.sess.SetAuthDelay(status.AuthDelay)
	return status, nil
}

// certs runs the shared certs+check certificate chain flow: fetch the
// chain, request a check signature over a fresh app nonce, verify the
// chain terminates at a registered root, and verify the check signature
// against the card's own pubkey.
func (b *base) certs(appNonce []byte, slotPubkey []byte) (string, error) {
	var certsResp wire.CertsResponse
	if err := transmit(b.transport, b.codec, wire.NewCertsCommand(), &certsResp); err != nil {
		return "", err
	}

	cardNonceAtRequest := b.sess.CardNonce()
	var checkResp wire.CheckResponse
	if err := transmit(b.transport, b.codec, wire.NewCheckCommand(appNonce), &checkResp); err != nil {
		return "", err
	}

	rootName, err := VerifyCertChain(b.pubkey, certsResp.CertChain)
	if err != nil {
		return "", err
	}

	if err := VerifyCheckSignature(b.pubkey, cardNonceAtRequest, appNonce, slotPubkey, b.ver, checkResp.Sig); err != nil {
		return "", err
	}

	if len(checkResp.CardNonce) > 0 {
		b.sess.AdvanceNonce(checkResp.CardNonce)
	}

	return rootName, nil
}

// wait ticks the card's auth-delay counter toward zero and returns the
// remaining count.
func (b *base) wait() (int, error) {
	var resp wire.WaitResponse
	if err := transmit(b.transport, b.codec, wire.NewWaitCommand(), &resp); err != nil {
		return 0, err
	}
	b.sess.SetAuthDelay(resp.AuthDelay)
	return resp.AuthDelay, nil
}
