// Package pairverify implements the legacy ECDH + Ed25519 pair-verify state
// machine (spec.md §4.3): the accessory and an already-trusted controller
// re-establish a shared secret for the session without a PIN.
package pairverify

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/curve25519"

	aplcrypto "github.com/blackbird-av/airplay2/pkg/crypto"
)

const (
	keyLen       = 32
	signatureLen = 64
	// ResponseLen is the length of the M1 response: our X25519 public key
	// followed by the encrypted signature.
	ResponseLen = keyLen + signatureLen
)

// Errors surfaced by the state machine.
var (
	ErrWrongState    = errors.New("pairverify: wrong state")
	ErrCryptography  = errors.New("pairverify: invalid key material")
	ErrVerification  = errors.New("pairverify: signature verification failed")
)

type stage int

const (
	stageEmpty stage = iota
	stageEstablished
	stageVerified
)

// State is the per-connection legacy pair-verify state machine. It starts
// Empty, moves to Established after M1, and to Verified after a successful
// M2. The zero value is not usable; construct with New.
type State struct {
	signingOur ed25519.PrivateKey

	stage        stage
	verifyTheir  ed25519.PublicKey
	pubkeyTheir  [keyLen]byte
	pubkeyOur    [keyLen]byte
	sharedSecret [keyLen]byte
}

// New constructs a pair-verify state machine from the accessory's Ed25519
// signing seed (32 bytes).
func New(signingSeed [32]byte) *State {
	return &State{
		signingOur: ed25519.NewKeyFromSeed(signingSeed[:]),
		stage:      stageEmpty,
	}
}

// VerifyingKey returns the accessory's Ed25519 public key.
func (s *State) VerifyingKey() []byte {
	pub := s.signingOur.Public().(ed25519.PublicKey)
	out := make([]byte, len(pub))
	copy(out, pub)
	return out
}

// EstablishAgreement handles M1: given the controller's X25519 public key
// and Ed25519 verify key, sample an ephemeral X25519 key pair, compute the
// Diffie-Hellman shared secret, sign "our_pub || their_pub", and return our
// public key concatenated with the keystream-encrypted signature.
func (s *State) EstablishAgreement(theirPub, theirVerify [keyLen]byte) ([ResponseLen]byte, [keyLen]byte, error) {
	var response [ResponseLen]byte

	verifyTheir := ed25519.PublicKey(theirVerify[:])

	var ephemeral [keyLen]byte
	if _, err := rand.Read(ephemeral[:]); err != nil {
		return response, [keyLen]byte{}, fmt.Errorf("pairverify: %w", err)
	}

	pubOur, err := curve25519.X25519(ephemeral[:], curve25519.Basepoint)
	if err != nil {
		return response, [keyLen]byte{}, fmt.Errorf("%w: %v", ErrCryptography, err)
	}
	var pubkeyOur [keyLen]byte
	copy(pubkeyOur[:], pubOur)

	sharedRaw, err := curve25519.X25519(ephemeral[:], theirPub[:])
	if err != nil {
		return response, [keyLen]byte{}, fmt.Errorf("%w: %v", ErrCryptography, err)
	}
	var sharedSecret [keyLen]byte
	copy(sharedSecret[:], sharedRaw)

	var signMsg [2 * keyLen]byte
	copy(signMsg[:keyLen], pubkeyOur[:])
	copy(signMsg[keyLen:], theirPub[:])
	signature := ed25519.Sign(s.signingOur, signMsg[:])

	stream, err := aplcrypto.CipherWithHashedAESIV([]byte("Pair-Verify-AES-Key"), []byte("Pair-Verify-AES-IV"), sharedSecret[:])
	if err != nil {
		return response, [keyLen]byte{}, fmt.Errorf("%w: %v", ErrCryptography, err)
	}
	stream.XORKeyStream(signature, signature)

	copy(response[:keyLen], pubkeyOur[:])
	copy(response[keyLen:], signature)

	s.stage = stageEstablished
	s.verifyTheir = verifyTheir
	s.pubkeyTheir = theirPub
	s.pubkeyOur = pubkeyOur
	s.sharedSecret = sharedSecret

	return response, sharedSecret, nil
}

// VerifyAgreement handles M2: decrypts the controller's signature (after
// skipping the 64 bytes of keystream already consumed by our own M1
// signature) and verifies it against "their_pub || our_pub". On success the
// state machine transitions to Verified and the shared secret becomes
// authoritative.
func (s *State) VerifyAgreement(signature [signatureLen]byte) error {
	if s.stage != stageEstablished {
		return ErrWrongState
	}

	stream, err := aplcrypto.CipherWithHashedAESIV([]byte("Pair-Verify-AES-Key"), []byte("Pair-Verify-AES-IV"), s.sharedSecret[:])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCryptography, err)
	}

	var skip [signatureLen]byte
	stream.XORKeyStream(skip[:], skip[:])
	plain := make([]byte, signatureLen)
	stream.XORKeyStream(plain, signature[:])

	var message [2 * keyLen]byte
	copy(message[:keyLen], s.pubkeyTheir[:])
	copy(message[keyLen:], s.pubkeyOur[:])

	if !ed25519.Verify(s.verifyTheir, message[:], plain) {
		s.stage = stageEmpty
		return ErrVerification
	}

	s.stage = stageVerified
	return nil
}

// SharedSecret returns the established shared secret. It is only valid to
// call once the state machine has reached Established or Verified; per
// spec.md §4.3, emitting it from Established (before M2) is allowed but
// callers should prefer waiting for Verified.
func (s *State) SharedSecret() ([keyLen]byte, bool) {
	if s.stage == stageEmpty {
		return [keyLen]byte{}, false
	}
	return s.sharedSecret, true
}

// Verified reports whether M2 succeeded.
func (s *State) Verified() bool {
	return s.stage == stageVerified
}
