package cktapcrypto

import "fmt"

// UnzipPubkey recovers a card-obscured public key. Some TAPSIGNER responses
// mask a pubkey by XORing its x-coordinate bytes with the per-command ECDH
// session secret; the sign byte may then no longer match a point on the
// curve, in which case the other parity is tried. This is the fallback
// named in spec section 9's open question. No code in this module calls
// it: card.Signer.Derive requires a plain master_pubkey in the response.
func UnzipPubkey(obscured []byte, sessionSecret [DigestLen]byte) (*PublicKey, error) {
	if len(obscured) != CompactPubkeyLen {
		return nil, fmt.Errorf("cktapcrypto: obscured pubkey must be %d bytes, got %d", CompactPubkeyLen, len(obscured))
	}

	unxored := make([]byte, CompactPubkeyLen)
	copy(unxored, obscured)
	for i := 1; i < CompactPubkeyLen; i++ {
		unxored[i] ^= sessionSecret[i-1]
	}

	if pub, err := ParsePubkey(unxored); err == nil {
		return pub, nil
	}

	// Wrong point parity: flip the compression sign byte and retry.
	flipped := make([]byte, CompactPubkeyLen)
	copy(flipped, unxored)
	if flipped[0] == 0x02 {
		flipped[0] = 0x03
	} else {
		flipped[0] = 0x02
	}
	return ParsePubkey(flipped)
}
