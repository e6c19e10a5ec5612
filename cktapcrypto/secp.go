// Package cktapcrypto provides the secp256k1 primitives the cktap session
// layer needs: ephemeral keypair generation, compact ECDH, compact ECDSA
// verification, and secure random generation of nonces and chain codes.
package cktapcrypto

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	secp256k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// PrivateKey and PublicKey are the secp256k1 key types used throughout the
// session and card packages.
type PrivateKey = secp256k1.PrivateKey
type PublicKey = secp256k1.PublicKey

const (
	// NonceLen is the fixed size of a card nonce and an app nonce.
	NonceLen = 16
	// ChainCodeLen is the fixed size of a BIP32-style chain code.
	ChainCodeLen = 32
	// CompactPubkeyLen is the size of a compressed secp256k1 point.
	CompactPubkeyLen = 33
	// CompactSigLen is the size of a raw r||s ECDSA signature.
	CompactSigLen = 64
	// RecoverableSigLen is the size of a compact signature plus its leading
	// recovery-id byte, as used by certificate chain entries.
	RecoverableSigLen = 65
	// DigestLen is the size of a SHA-256 message digest.
	DigestLen = 32
)

// ParsePubkey parses a 33-byte compressed secp256k1 point.
func ParsePubkey(b []byte) (*PublicKey, error) {
	if len(b) != CompactPubkeyLen {
		return nil, fmt.Errorf("cktapcrypto: pubkey must be %d bytes, got %d", CompactPubkeyLen, len(b))
	}
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("cktapcrypto: invalid pubkey: %w", err)
	}
	return pub, nil
}

// SerializeCompressed returns the 33-byte compressed encoding of pub.
func SerializeCompressed(pub *PublicKey) []byte {
	return pub.SerializeCompressed()
}

// PrivateKeyFromScalar constructs a private key from a 32-byte big-endian
// scalar. Exported mainly so tests can reconstruct known keys (e.g. the
// curve generator, scalar 1) without a CSPRNG round trip.
func PrivateKeyFromScalar(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("cktapcrypto: scalar must be 32 bytes, got %d", len(b))
	}
	return secp256k1.PrivKeyFromBytes(b), nil
}

// GenerateEphemeralKeypair produces a fresh random secp256k1 keypair for a
// single command envelope, using the operating system's CSPRNG.
func GenerateEphemeralKeypair() (*PrivateKey, *PublicKey, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, nil, fmt.Errorf("cktapcrypto: generate ephemeral key: %w", err)
	}
	return priv, priv.PubKey(), nil
}

// RandNonce returns a fresh 16-byte cryptographically random app nonce.
func RandNonce() ([]byte, error) {
	b := make([]byte, NonceLen)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("cktapcrypto: random nonce: %w", err)
	}
	return b, nil
}

// RandChainCode returns a fresh 32-byte cryptographically random chain code.
func RandChainCode() ([]byte, error) {
	b := make([]byte, ChainCodeLen)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("cktapcrypto: random chain code: %w", err)
	}
	return b, nil
}

// ECDHSharedSecret computes the session secret the card's xcvc scheme uses:
// SHA-256 over the compressed encoding of the ECDH shared point
// eprivkey*cardPubkey. This is the "compact_ecdh" of spec section 4.3.
func ECDHSharedSecret(priv *PrivateKey, pub *PublicKey) [DigestLen]byte {
	var pubPoint secp256k1.JacobianPoint
	pub.AsJacobian(&pubPoint)

	var sharedPoint secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&priv.Key, &pubPoint, &sharedPoint)
	sharedPoint.ToAffine()

	sharedPub := secp256k1.NewPublicKey(&sharedPoint.X, &sharedPoint.Y)
	return sha256.Sum256(sharedPub.SerializeCompressed())
}

// Digest returns SHA-256(msg). It adds no prefix of its own: callers that
// need the OPENDIME-prefixed card digest build it with session.Digest,
// while certificate-chain links hash a bare compressed pubkey.
func Digest(msg []byte) [DigestLen]byte {
	return sha256.Sum256(msg)
}

// VerifyCompact verifies a raw 64-byte r||s ECDSA signature over digest
// against pub. A signature of any other length is rejected.
func VerifyCompact(pub *PublicKey, digest [DigestLen]byte, sig []byte) bool {
	if len(sig) != CompactSigLen {
		return false
	}
	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow {
		return false
	}
	if overflow := s.SetByteSlice(sig[32:]); overflow {
		return false
	}
	signature := ecdsa.NewSignature(&r, &s)
	return signature.Verify(digest[:], pub)
}

// SignCompact signs digest with priv and serializes the result as a raw
// 64-byte r||s signature, the same wire shape the card uses. It exists so
// tests (and the certificate-chain test fixtures in the card package) can
// fabricate card-shaped signatures without a real device.
func SignCompact(priv *PrivateKey, digest [DigestLen]byte) []byte {
	sig := ecdsa.Sign(priv, digest[:])
	der := sig.Serialize()
	return derToCompact(der)
}

// SignRecoverable signs digest with priv and returns decred's 65-byte
// recoverable encoding (a leading recovery-id/parity byte followed by
// compact r||s). Certificate chain entries use this shape so a verifier
// can recover the signer's pubkey without the card ever transmitting it.
func SignRecoverable(priv *PrivateKey, digest [DigestLen]byte) []byte {
	return ecdsa.SignCompact(priv, digest[:], true)
}

// RecoverPubkey recovers the signer's compressed pubkey from a 65-byte
// recoverable signature over digest. It returns an error if sig is the
// wrong length or doesn't correspond to a valid curve point.
func RecoverPubkey(sig []byte, digest [DigestLen]byte) (*PublicKey, error) {
	if len(sig) != RecoverableSigLen {
		return nil, fmt.Errorf("cktapcrypto: recoverable signature must be %d bytes, got %d", RecoverableSigLen, len(sig))
	}
	pub, _, err := ecdsa.RecoverCompact(sig, digest[:])
	if err != nil {
		return nil, fmt.Errorf("cktapcrypto: recover pubkey: %w", err)
	}
	return pub, nil
}

// derToCompact converts a DER-encoded ECDSA signature to a fixed 64-byte
// r||s encoding, left-padding each 32-byte half.
func derToCompact(der []byte) []byte {
	idx := 2 // skip 0x30, total-length byte (short form; our sigs are always < 128 bytes)
	idx++    // skip 0x02 (integer marker for r)
	rLen := int(der[idx])
	idx++
	r := der[idx : idx+rLen]
	idx += rLen
	idx++ // skip 0x02 (integer marker for s)
	sLen := int(der[idx])
	idx++
	s := der[idx : idx+sLen]

	out := make([]byte, CompactSigLen)
	copy(out[32-len(trimLeadingZero(r)):32], trimLeadingZero(r))
	copy(out[64-len(trimLeadingZero(s)):64], trimLeadingZero(s))
	return out
}

func trimLeadingZero(b []byte) []byte {
	for len(b) > 1 && b[0] == 0 {
		b = b[1:]
	}
	return b
}

// Zero overwrites b with zero bytes, used to scrub derived session secrets
// and the xcvc once a command completes.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
