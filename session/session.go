// Package session owns the per-card authentication state a cktap card
// object carries across commands: the rolling card nonce, auth-delay
// cooldown, and the xcvc/digest machinery every authenticated command
// and signature-bearing response goes through.
package session

import (
	"fmt"

	"cktap/cktapcrypto"
)

// opendimePrefix is the fixed 8-byte ASCII prefix of every digest a card
// signs.
var opendimePrefix = []byte("OPENDIME")

// Session tracks the rolling card_nonce and auth_delay for one card
// object. It is not safe for concurrent use — the spec requires strictly
// serialized commands against a single card. Session does not enforce
// that: it mutates its own fields in place with no locking.
type Session struct {
	cardPubkey *cktapcrypto.PublicKey
	cardNonce  []byte
	authDelay  int
}

// New builds a Session from a card's pubkey and its first known nonce, as
// returned by an initial unauthenticated status call.
func New(cardPubkey *cktapcrypto.PublicKey, cardNonce []byte, authDelay int) *Session {
	return &Session{cardPubkey: cardPubkey, cardNonce: append([]byte(nil), cardNonce...), authDelay: authDelay}
}

// CardNonce returns the current rolling nonce — the card_nonce returned by
// the most recent successful command, which the next command's digest
// binds to.
func (s *Session) CardNonce() []byte {
	return s.cardNonce
}

// AuthDelay returns the card's last-reported auth-delay counter.
func (s *Session) AuthDelay() int {
	return s.authDelay
}

// RequireNoDelay rejects a privileged command while the card is still
// cooling down from a prior bad-CVC attempt, without touching the
// transport at all.
func (s *Session) RequireNoDelay() error {
	if s.authDelay > 0 {
		return &AuthDelayError{Remaining: s.authDelay}
	}
	return nil
}

// AdvanceNonce rolls the session forward to a newly received card_nonce.
// Callers must only call this once a response has been fully validated;
// on any error the session must be left untouched.
func (s *Session) AdvanceNonce(newNonce []byte) {
	s.cardNonce = append(s.cardNonce[:0], newNonce...)
}

// SetAuthDelay records the card's latest auth_delay value, e.g. after a
// wait tick or a status refresh.
func (s *Session) SetAuthDelay(delay int) {
	s.authDelay = delay
}

// Envelope is the ephemeral keying material and obfuscated CVC for one
// authenticated command. Scrub holds both secrets alive only long enough
// to build the command; callers must call Scrub once the command has been
// sent.
type Envelope struct {
	EPubkey []byte
	XCVC    []byte

	ephemeralPriv *cktapcrypto.PrivateKey
	sharedSecret  [cktapcrypto.DigestLen]byte
}

// BuildEnvelope generates a fresh ephemeral keypair, derives the ECDH
// session secret against the card's pubkey, and obfuscates cvc by XOR
// against a same-length prefix of that secret.
func (s *Session) BuildEnvelope(cvc string) (*Envelope, error) {
	if len(cvc) == 0 {
		return nil, fmt.Errorf("session: cvc must not be empty")
	}
	if len(cvc) > cktapcrypto.DigestLen {
		return nil, fmt.Errorf("session: cvc of %d bytes exceeds the %d-byte shared secret", len(cvc), cktapcrypto.DigestLen)
	}

	ePriv, ePub, err := cktapcrypto.GenerateEphemeralKeypair()
	if err != nil {
		return nil, fmt.Errorf("session: build envelope: %w", err)
	}

	secret := cktapcrypto.ECDHSharedSecret(ePriv, s.cardPubkey)

	xcvc := make([]byte, len(cvc))
	for i := 0; i < len(cvc); i++ {
		xcvc[i] = cvc[i] ^ secret[i]
	}

	return &Envelope{
		EPubkey:       cktapcrypto.SerializeCompressed(ePub),
		XCVC:          xcvc,
		ephemeralPriv: ePriv,
		sharedSecret:  secret,
	}, nil
}

// Scrub zeroes the envelope's secret material. Callers must call this
// after the command has been transmitted (success or failure) and the
// envelope is no longer needed.
func (e *Envelope) Scrub() {
	if e.ephemeralPriv != nil {
		e.ephemeralPriv.Zero()
	}
	cktapcrypto.Zero(e.sharedSecret[:])
	cktapcrypto.Zero(e.XCVC)
}

// Digest builds the "OPENDIME"-prefixed message every signed card
// response covers: the pre-command card nonce, the app nonce the client
// sent, and command-specific response data.
func Digest(cardNonceAtRequest, appNonce, data []byte) [cktapcrypto.DigestLen]byte {
	msg := make([]byte, 0, len(opendimePrefix)+len(cardNonceAtRequest)+len(appNonce)+len(data))
	msg = append(msg, opendimePrefix...)
	msg = append(msg, cardNonceAtRequest...)
	msg = append(msg, appNonce...)
	msg = append(msg, data...)
	return cktapcrypto.Digest(msg)
}

// AuthDelayError reports that privileged commands are blocked until the
// caller drains the card's cooldown counter with wait.
type AuthDelayError struct {
	Remaining int
}

func (e *AuthDelayError) Error() string {
	return fmt.Sprintf("session: auth delay in effect, %d wait call(s) remaining", e.Remaining)
}
