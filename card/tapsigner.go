package card

import (
	"cktap/cktapcrypto"
	"cktap/session"
	"cktap/wire"
)

// Signer is the single-slot state machine shared by TapSigner and
// SatsChip: blank -> initialized -> derived-at-path. Every privileged
// command requires the CVC.
type Signer struct {
	base

	path       []uint32
	numBackups int
}

func newSigner(b base, status wire.StatusResponse) *Signer {
	return &Signer{base: b, path: status.Path, numBackups: status.NumBackups}
}

func (s *Signer) Kind() Kind { return KindTapSigner }

// Path returns the card's current derivation path, or nil while blank.
func (s *Signer) Path() []uint32 { return s.path }

// NumBackups returns how many backup events the card has recorded.
func (s *Signer) NumBackups() int { return s.numBackups }

// Refresh re-reads status and updates the path, backup count, and
// auth-delay.
func (s *Signer) Refresh() error {
	status, err := s.refreshStatus()
	if err != nil {
		return err
	}
	s.path = status.Path
	s.numBackups = status.NumBackups
	return nil
}

// Init seeds the card's single slot with a fresh 32-byte chain code,
// transitioning blank -> initialized. Permitted only while blank; the
// card itself enforces this precondition, since a signer's status report
// looks identical (no path) whether it is blank or initialized-but-never-
// derived.
func (s *Signer) Init(chainCode []byte, cvc string) (*wire.NewResponse, error) {
	if err := s.sess.RequireNoDelay(); err != nil {
		return nil, err
	}
	if len(chainCode) != cktapcrypto.ChainCodeLen {
		return nil, &StateError{Reason: "init: chain_code must be 32 bytes"}
	}

	env, err := s.sess.BuildEnvelope(cvc)
	if err != nil {
		return nil, err
	}
	defer env.Scrub()

	cmd := wire.NewNewSlotCommand(0, chainCode, env.EPubkey, env.XCVC)
	var resp wire.NewResponse
	if err := transmit(s.transport, s.codec, cmd, &resp); err != nil {
		return nil, err
	}
	s.sess.AdvanceNonce(resp.CardNonce)
	return &resp, nil
}

// Read returns the pubkey at the card's current derivation path.
// Requires authentication.
func (s *Signer) Read(cvc string) (*wire.ReadResponse, error) {
	if err := s.sess.RequireNoDelay(); err != nil {
		return nil, err
	}

	appNonce, err := cktapcrypto.RandNonce()
	if err != nil {
		return nil, err
	}

	env, err := s.sess.BuildEnvelope(cvc)
	if err != nil {
		return nil, err
	}
	defer env.Scrub()

	cmd := wire.NewReadCommand(appNonce, env.EPubkey, env.XCVC)
	var resp wire.ReadResponse
	if err := transmit(s.transport, s.codec, cmd, &resp); err != nil {
		return nil, err
	}
	if len(resp.CardNonce) > 0 {
		s.sess.AdvanceNonce(resp.CardNonce)
	}
	return &resp, nil
}

// hardenPath ORs the hardened-derivation high bit into each path element.
// Signer-card derivation is always hardened; unhardened steps are not
// representable on the wire.
func hardenPath(path []uint32) []uint32 {
	out := make([]uint32, len(path))
	for i, p := range path {
		out[i] = p | (1 << 31)
	}
	return out
}

// Derive sets the current derivation path and returns the derived pubkey,
// chain code, and a signature verified against the returned master
// pubkey.
func (s *Signer) Derive(path []uint32, cvc string) (*wire.DeriveResponse, error) {
	if err := s.sess.RequireNoDelay(); err != nil {
		return nil, err
	}

	appNonce, err := cktapcrypto.RandNonce()
	if err != nil {
		return nil, err
	}
	cardNonceAtRequest := s.sess.CardNonce()

	env, err := s.sess.BuildEnvelope(cvc)
	if err != nil {
		return nil, err
	}
	defer env.Scrub()

	hardened := hardenPath(path)
	cmd := wire.NewDeriveCommandForTapSigner(appNonce, hardened, env.EPubkey, env.XCVC)
	var resp wire.DeriveResponse
	if err := transmit(s.transport, s.codec, cmd, &resp); err != nil {
		return nil, err
	}

	masterPubkey, err := cktapcrypto.ParsePubkey(resp.MasterPubkey)
	if err != nil {
		return nil, &CryptoError{Reason: "derive: master pubkey: " + err.Error()}
	}
	digest := session.Digest(cardNonceAtRequest, appNonce, resp.ChainCode)
	if !cktapcrypto.VerifyCompact(masterPubkey, digest, resp.Sig) {
		return nil, &CryptoError{Reason: "derive: signature did not verify against the returned master pubkey"}
	}

	s.sess.AdvanceNonce(resp.CardNonce)
	s.path = hardened
	return &resp, nil
}

// Certs verifies the certificate chain and the final check signature,
// returning the matched factory root's name. Signer cards have no slot
// pubkey to bind into the check digest.
func (s *Signer) Certs(appNonce []byte) (string, error) {
	return s.certs(appNonce, nil)
}

// Wait ticks the card's auth-delay counter toward zero.
func (s *Signer) Wait() (int, error) {
	return s.wait()
}
