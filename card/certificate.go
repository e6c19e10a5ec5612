package card

import (
	"strconv"

	"cktap/cktapcrypto"
	"cktap/rootkeys"
	"cktap/session"
)

// VerifyCertChain walks an ordered certificate chain starting from the
// card's own per-unit pubkey: each entry is a 65-byte recoverable
// signature over the compressed pubkey of the previous level, letting the
// verifier recover each intermediate signer without the card ever
// transmitting its pubkey. The chain is accepted iff every signature
// recovers cleanly and the final recovered pubkey matches a registered
// factory root; the matched root's name is returned.
func VerifyCertChain(cardPubkey *cktapcrypto.PublicKey, chain [][]byte) (string, error) {
	if len(chain) == 0 {
		return "", &CryptoError{Reason: "certificate chain is empty"}
	}

	current := cardPubkey
	for i, sig := range chain {
		digest := cktapcrypto.Digest(cktapcrypto.SerializeCompressed(current))
		recovered, err := cktapcrypto.RecoverPubkey(sig, digest)
		if err != nil {
			return "", &CryptoError{Reason: "certificate chain link " + strconv.Itoa(i) + ": " + err.Error()}
		}
		current = recovered
	}

	name, ok := rootkeys.Lookup(current)
	if !ok {
		return "", &CryptoError{Reason: "certificate chain does not terminate at a registered factory root"}
	}
	return name, nil
}

// checkDigestFirmwareQuirkVersion is the one firmware string known to omit
// the slot pubkey from the check-command digest.
const checkDigestFirmwareQuirkVersion = "0.9.0"

// VerifyCheckSignature verifies the final "check" signature the card
// returns over its own per-unit key, proving possession of the key the
// certificate chain vouches for. Firmware "0.9.0" signs a shorter digest
// that omits the current slot pubkey; every later firmware includes it.
func VerifyCheckSignature(cardPubkey *cktapcrypto.PublicKey, cardNonceAtRequest, appNonce []byte, slotPubkey []byte, firmwareVer string, sig []byte) error {
	data := slotPubkey
	if firmwareVer == checkDigestFirmwareQuirkVersion {
		data = nil
	}

	digest := session.Digest(cardNonceAtRequest, appNonce, data)
	if !cktapcrypto.VerifyCompact(cardPubkey, digest, sig) {
		return &CryptoError{Reason: "check signature did not verify against the card's per-unit pubkey"}
	}
	return nil
}
