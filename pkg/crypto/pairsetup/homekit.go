// Package pairsetup implements HomeKit's SRP-6a-3072 pair-setup state
// machine (spec.md §4.4): M1/M2 salt+verifier exchange, M3/M4 proof
// verification, and the optional M5/M6 transient-pairing completion.
package pairsetup

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	aplcrypto "github.com/blackbird-av/airplay2/pkg/crypto"
)

const (
	// Username is the fixed SRP identity HomeKit pair-setup uses.
	Username = "Pair-Setup"
	// DefaultPassword is used when no PIN is configured.
	DefaultPassword = "3939"
)

// ErrorCode mirrors the TLV8 error values pair-setup can surface.
type ErrorCode int

// error codes surfaced by the state machine (spec.md §4.4).
const (
	ErrorUnknown        ErrorCode = 1
	ErrorAuthentication ErrorCode = 2
	ErrorBackoff        ErrorCode = 3
	ErrorMaxPeers       ErrorCode = 4
	ErrorMaxTries       ErrorCode = 5
	ErrorUnavailable    ErrorCode = 6
	ErrorBusy           ErrorCode = 7
)

func (e ErrorCode) Error() string {
	switch e {
	case ErrorAuthentication:
		return "pairsetup: authentication failed"
	case ErrorBusy:
		return "pairsetup: wrong state"
	default:
		return fmt.Sprintf("pairsetup: error code %d", int(e))
	}
}

type stage int

const (
	stageInit stage = iota
	stageAuthStart
	stageTransient
)

// State is the per-connection HomeKit pair-setup state machine.
type State struct {
	username []byte
	password []byte

	stage      stage
	salt       [16]byte
	privkey    [64]byte
	verifier   []byte
	sessionKey []byte
}

// New constructs a pair-setup state machine. pin, if non-empty, is used as
// the SRP password (formatted DDD-DD-DDD by the caller per spec.md §4.4
// step 2); otherwise DefaultPassword is used.
func New(pin string) *State {
	password := DefaultPassword
	if pin != "" {
		password = pin
	}
	return &State{
		username: []byte(Username),
		password: []byte(password),
		stage:    stageInit,
	}
}

// M1M2 samples a fresh salt and server private exponent, computes the SRP
// verifier and public ephemeral, and returns (serverPublicKey, salt).
func (s *State) M1M2() (pubkey []byte, salt []byte, err error) {
	if _, err := rand.Read(s.salt[:]); err != nil {
		return nil, nil, err
	}
	if _, err := rand.Read(s.privkey[:]); err != nil {
		return nil, nil, err
	}

	s.verifier = ComputeVerifier(s.username, s.password, s.salt[:])
	pub := ComputePublicEphemeral(s.privkey[:], s.verifier)

	s.stage = stageAuthStart
	return pub, s.salt[:], nil
}

// M3M4 verifies the client's SRP proof against the client's public
// ephemeral, returning the server's own proof on success.
func (s *State) M3M4(clientPub, clientProof []byte) ([]byte, error) {
	if s.stage != stageAuthStart {
		return nil, ErrorBusy
	}

	reply, err := ProcessReply(s.username, s.salt[:], s.privkey[:], s.verifier, clientPub)
	if err != nil {
		return nil, ErrorAuthentication
	}

	sessionKey, err := reply.VerifyClient(clientProof)
	if err != nil {
		return nil, ErrorAuthentication
	}

	s.sessionKey = sessionKey
	s.stage = stageTransient

	return reply.Proof(), nil
}

// SessionKey returns the SRP session key once M3M4 has succeeded.
func (s *State) SessionKey() ([]byte, bool) {
	if s.stage != stageTransient {
		return nil, false
	}
	return s.sessionKey, true
}

var (
	m5Nonce = []byte("\x00\x00\x00\x00PS-Msg05")
	m6Nonce = []byte("\x00\x00\x00\x00PS-Msg06")
)

// M5M6Decrypt decrypts the controller's M5 encrypted payload with a key
// derived from the SRP session key.
func (s *State) M5M6Decrypt(ciphertext []byte) ([]byte, error) {
	if s.stage != stageTransient {
		return nil, ErrorBusy
	}

	key, err := aplcrypto.HKDFSHA512(s.sessionKey, []byte("Pair-Setup-Encrypt-Salt"), []byte("Pair-Setup-Encrypt-Info"), 32)
	if err != nil {
		return nil, ErrorAuthentication
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, ErrorAuthentication
	}

	plain, err := aead.Open(nil, m5Nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrorAuthentication
	}
	return plain, nil
}

// M5M6Verify checks the controller's Ed25519 signature over its derived
// deviceX, id and public key.
func (s *State) M5M6Verify(deviceID, devicePubKey, deviceSignature []byte) error {
	if s.stage != stageTransient {
		return ErrorBusy
	}

	deviceX, err := aplcrypto.HKDFSHA512(s.sessionKey, []byte("Pair-Setup-Controller-Sign-Salt"), []byte("Pair-Setup-Controller-Sign-Info"), 32)
	if err != nil {
		return ErrorAuthentication
	}

	info := make([]byte, 0, len(deviceX)+len(deviceID)+len(devicePubKey))
	info = append(info, deviceX...)
	info = append(info, deviceID...)
	info = append(info, devicePubKey...)

	if len(devicePubKey) != ed25519.PublicKeySize {
		return ErrorAuthentication
	}
	if !ed25519.Verify(ed25519.PublicKey(devicePubKey), info, deviceSignature) {
		return ErrorAuthentication
	}
	return nil
}

// M5M6Sign derives the accessory's signed blob for the M6 response; sign is
// the accessory's Ed25519 signing function (typically pkg/keychain.Sign).
func (s *State) M5M6Sign(accessoryID, accessoryPubKey []byte, sign func([]byte) []byte) ([]byte, error) {
	if s.stage != stageTransient {
		return nil, ErrorBusy
	}

	accessoryX, err := aplcrypto.HKDFSHA512(s.sessionKey, []byte("Pair-Setup-Accessory-Sign-Salt"), []byte("Pair-Setup-Accessory-Sign-Info"), 32)
	if err != nil {
		return nil, ErrorAuthentication
	}

	info := make([]byte, 0, len(accessoryX)+len(accessoryID)+len(accessoryPubKey))
	info = append(info, accessoryX...)
	info = append(info, accessoryID...)
	info = append(info, accessoryPubKey...)

	return sign(info), nil
}

// M5M6Encrypt encrypts the accessory's M6 response payload.
func (s *State) M5M6Encrypt(plaintext []byte) ([]byte, error) {
	if s.stage != stageTransient {
		return nil, ErrorBusy
	}

	key, err := aplcrypto.HKDFSHA512(s.sessionKey, []byte("Pair-Setup-Encrypt-Salt"), []byte("Pair-Setup-Encrypt-Info"), 32)
	if err != nil {
		return nil, ErrorAuthentication
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, ErrorAuthentication
	}

	return aead.Seal(nil, m6Nonce, plaintext, nil), nil
}
