// Package keychain implements the identity and trust-table collaborator
// pairing uses to sign its own challenges and to remember peers it has
// already paired with.
package keychain

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"sync"
)

// Keychain is the contract both pairing state machines use: an identity to
// sign with, and a table of peer identities trusted across pairings.
type Keychain interface {
	// ID returns this device's own identifier, advertised during pairing.
	ID() string
	// PublicKey returns this device's Ed25519 public key.
	PublicKey() ed25519.PublicKey
	// Sign returns an Ed25519 signature over msg using this device's
	// private key.
	Sign(msg []byte) []byte
	// Trust records that peer id's public key is trusted for future
	// pair-verify handshakes, reporting whether it was newly added.
	Trust(id string, pubKey ed25519.PublicKey) bool
	// Verify reports whether sig is a valid Ed25519 signature over msg
	// from the previously-trusted peer id.
	Verify(id string, msg, sig []byte) bool
}

// ErrUnknownPeer is returned by implementations that distinguish "no such
// peer" from "signature didn't verify"; Default folds both into Verify
// returning false, matching the boolean contract above.
var ErrUnknownPeer = errors.New("keychain: peer not trusted")

// Default is an in-memory Keychain: a fixed Ed25519 identity generated or
// supplied at construction, and an unbounded-until-capped trust table
// guarded by a mutex.
type Default struct {
	id         string
	pub        ed25519.PublicKey
	priv       ed25519.PrivateKey
	maxTrusted int

	mu      sync.RWMutex
	trusted map[string]ed25519.PublicKey
	order   []string
}

// DefaultMaxTrusted bounds the trust table so a misbehaving peer can't grow
// it without limit; the oldest entry is evicted to make room for a new one.
const DefaultMaxTrusted = 10

// NewDefault builds a Default keychain from a 32-byte Ed25519 seed and an
// advertised device id. A nil seed generates a fresh random identity.
func NewDefault(id string, seed []byte) (*Default, error) {
	var priv ed25519.PrivateKey
	if seed == nil {
		_, generated, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		priv = generated
	} else {
		if len(seed) != ed25519.SeedSize {
			return nil, errors.New("keychain: seed must be 32 bytes")
		}
		priv = ed25519.NewKeyFromSeed(seed)
	}

	return &Default{
		id:         id,
		pub:        priv.Public().(ed25519.PublicKey),
		priv:       priv,
		maxTrusted: DefaultMaxTrusted,
		trusted:    make(map[string]ed25519.PublicKey),
	}, nil
}

// ID implements Keychain.
func (k *Default) ID() string { return k.id }

// PublicKey implements Keychain.
func (k *Default) PublicKey() ed25519.PublicKey { return k.pub }

// Seed returns the 32-byte Ed25519 seed backing this identity. It is not
// part of the Keychain interface: only the legacy pair-verify state
// machine, which needs the raw seed rather than a Sign callback, uses it
// via a type assertion.
func (k *Default) Seed() [32]byte {
	var out [32]byte
	copy(out[:], k.priv.Seed())
	return out
}

// Sign implements Keychain.
func (k *Default) Sign(msg []byte) []byte {
	return ed25519.Sign(k.priv, msg)
}

// Trust implements Keychain.
func (k *Default) Trust(id string, pubKey ed25519.PublicKey) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, exists := k.trusted[id]; exists {
		k.trusted[id] = pubKey
		return false
	}

	if len(k.order) >= k.maxTrusted {
		oldest := k.order[0]
		k.order = k.order[1:]
		delete(k.trusted, oldest)
	}

	k.trusted[id] = pubKey
	k.order = append(k.order, id)
	return true
}

// Verify implements Keychain.
func (k *Default) Verify(id string, msg, sig []byte) bool {
	k.mu.RLock()
	pub, ok := k.trusted[id]
	k.mu.RUnlock()
	if !ok {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}
