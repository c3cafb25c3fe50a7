// Package session holds the per-connection mutable state spec.md §3
// describes as SessionState: the pairing sub-state machines, the derived
// AES session key/IV, the saved FairPlay M3 message, the event-channel
// port, and the weak-valued stream registry. One SessionState exists per
// TCP connection attempt and is shared by reference with every handler and
// stream channel spawned from it.
package session

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/blackbird-av/airplay2/config"
	"github.com/blackbird-av/airplay2/pkg/crypto/pairsetup"
	"github.com/blackbird-av/airplay2/pkg/crypto/pairverify"
)

// seeded is implemented by keychain.Default; legacy pair-verify needs the
// raw Ed25519 seed rather than a Sign callback.
type seeded interface {
	Seed() [32]byte
}

// State is SessionState: process-wide (per-connection) mutable state.
// The saved FairPlay message and the AES key/IV share one mutex (mu); the
// pairing state-machine pointers are set once by New and read without a
// lock. The event-channel port uses its own mutex standing in for the async
// mutex spec.md describes (it exists purely to serialize concurrent
// SETUP/SenderInfo requests racing to create the event channel).
type State struct {
	// ID is an opaque per-connection identifier used only in log fields.
	ID string

	streamCounter atomic.Uint64

	mu         sync.Mutex
	pairVerify *pairverify.State
	pairSetup  *pairsetup.State
	fpLastMsg  []byte
	aesKey     *[16]byte
	aesIV      *[16]byte

	eventMu      sync.Mutex
	eventPort    uint16
	eventStarted bool

	Registry *Registry
}

// New constructs a State for a freshly accepted connection, wiring up
// whichever pairing sub-state machine cfg.PairingMode selects.
func New(cfg config.Config) *State {
	s := &State{
		ID:       uuid.NewString(),
		Registry: NewRegistry(),
	}

	switch cfg.PairingMode {
	case config.PairingHomeKit:
		pin := ""
		if cfg.PIN != nil {
			pin = cfg.PIN.String()
		}
		s.pairSetup = pairsetup.New(pin)
	default:
		var seed [32]byte
		if sk, ok := cfg.Keychain.(seeded); ok {
			seed = sk.Seed()
		}
		s.pairVerify = pairverify.New(seed)
	}

	return s
}

// NextStreamID returns the next stream id, a total-order atomic counter
// per spec.md §3/§5.
func (s *State) NextStreamID() uint64 {
	return s.streamCounter.Add(1) - 1
}

// PairVerify returns the legacy pair-verify state machine, or nil if this
// session was constructed for HomeKit pairing.
func (s *State) PairVerify() *pairverify.State {
	return s.pairVerify
}

// PairSetup returns the HomeKit pair-setup state machine, or nil if this
// session was constructed for legacy pairing.
func (s *State) PairSetup() *pairsetup.State {
	return s.pairSetup
}

// SharedSecret returns the shared secret established by legacy pair-verify,
// if any. Per spec.md §4.3, this is the value SETUP salts the unwrapped
// FairPlay AES key with.
func (s *State) SharedSecret() ([32]byte, bool) {
	if s.pairVerify == nil {
		return [32]byte{}, false
	}
	return s.pairVerify.SharedSecret()
}

// SetFPLastMsg stores the verbatim FairPlay M3 message (always exactly
// fairplay.M3Len bytes) for later key unwrap.
func (s *State) SetFPLastMsg(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fpLastMsg = msg
}

// FPLastMsg returns the saved FairPlay M3 message, if one was saved.
func (s *State) FPLastMsg() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fpLastMsg == nil {
		return nil, false
	}
	return s.fpLastMsg, true
}

// SetAESKeyIV stores the per-session AES key and IV computed during a
// SenderInfo SETUP request.
func (s *State) SetAESKeyIV(key, iv [16]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aesKey = &key
	s.aesIV = &iv
}

// AESKeyIV returns the stored key/IV, if a SenderInfo request has already
// populated them.
func (s *State) AESKeyIV() (key, iv [16]byte, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.aesKey == nil || s.aesIV == nil {
		return [16]byte{}, [16]byte{}, false
	}
	return *s.aesKey, *s.aesIV, true
}

// ClaimEventChannel reports whether the caller is the first to request an
// event channel for this session, recording port if so. Subsequent callers
// get back the already-bound port with claimed=false.
func (s *State) ClaimEventChannel(bind func() (uint16, error)) (port uint16, claimed bool, err error) {
	s.eventMu.Lock()
	defer s.eventMu.Unlock()

	if s.eventStarted {
		return s.eventPort, false, nil
	}

	port, err = bind()
	if err != nil {
		return 0, false, err
	}
	s.eventPort = port
	s.eventStarted = true
	return port, true, nil
}
