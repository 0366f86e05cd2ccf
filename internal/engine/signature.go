package engine

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/evetabi/prediction/internal/domain"
)

// Secp256k1Verifier verifies challenge signatures using secp256k1 ECDSA,
// the same curve family btcsuite's tooling uses for on-chain keys. Users are
// identified by their hex-encoded compressed public key (domain.PubKey);
// signatures are DER-encoded.
type Secp256k1Verifier struct{}

func (Secp256k1Verifier) Verify(user domain.PubKey, message []byte, sig string) bool {
	pubKeyBytes, err := hex.DecodeString(string(user))
	if err != nil {
		return false
	}
	pubKey, err := btcec.ParsePubKey(pubKeyBytes)
	if err != nil {
		return false
	}
	sigBytes, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	signature, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return false
	}
	return signature.Verify(message, pubKey)
}
