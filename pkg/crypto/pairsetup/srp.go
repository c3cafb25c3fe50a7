package pairsetup

import (
	"crypto/sha512"
	"crypto/subtle"
	"errors"
	"math/big"
)

var (
	errSafetyCheck    = errors.New("pairsetup: srp safety check failed")
	errAuthentication = errors.New("pairsetup: srp client proof mismatch")
)

// srpN and srpG are the 3072-bit MODP group used by HomeKit's SRP-6a
// pair-setup (the same prime as RFC 3526 group 15 / the SRP 3072-bit group
// extension to RFC 5054), with generator 5.
var (
	srpN, _ = new(big.Int).SetString(""+
		"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD129024E088A67CC74020BBEA63B139B22514A08798E"+
		"3404DDEF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C245E485B576625E7EC6F44C42E9A637ED6B0BFF"+
		"5CB6F406B7EDEE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3DC2007CB8A163BF0598DA48361C55D3"+
		"9A69163FA8FD24CF5F83655D23DCA3AD961C62F356208552BB9ED529077096966D670C354E4ABC9804F1746C08"+
		"CA18217C32905E462E36CE3BE39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9DE2BCBF69558171839"+
		"95497CEA956AE515D2261898FA051015728E5A8AAAC42DAD33170D04507A33A85521ABDF1CBA64ECFB850458DB"+
		"EF0A8AEA71575D060C7DB3970F85A6E1E4C7ABF5AE8CDB0933D71E8C94E04A25619DCEE3D2261AD2EE6BF12FFA"+
		"06D98A0864D87602733EC86A64521F2B18177B200CBBE117577A615D6C770988C0BAD946E208E24FA074E5AB31"+
		"43DB5BFCE0FD108E4B82D120A93AD2CAFFFFFFFFFFFFFFFF",
		16)
	srpG = big.NewInt(5)
)

func hash(parts ...[]byte) []byte {
	h := sha512.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

func pad(n *big.Int, size int) []byte {
	b := n.Bytes()
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}

func groupByteLen() int {
	return (srpN.BitLen() + 7) / 8
}

// ComputeVerifier computes the SRP-6a verifier v = g^x mod N for the given
// username/password/salt, matching the client-side computation HomeKit
// pair-setup performs against the accessory's chosen password (PIN).
func ComputeVerifier(username, password, salt []byte) []byte {
	x := computeX(username, password, salt)
	v := new(big.Int).Exp(srpG, x, srpN)
	return pad(v, groupByteLen())
}

func computeX(username, password, salt []byte) *big.Int {
	inner := hash(username, []byte(":"), password)
	return new(big.Int).SetBytes(hash(salt, inner))
}

// ComputePublicEphemeral computes the server's public ephemeral B from its
// private exponent b and the stored verifier v: B = (k*v + g^b) mod N.
func ComputePublicEphemeral(privkey, verifier []byte) []byte {
	b := new(big.Int).SetBytes(privkey)
	v := new(big.Int).SetBytes(verifier)

	k := computeK()
	gb := new(big.Int).Exp(srpG, b, srpN)
	kv := new(big.Int).Mul(k, v)
	kv.Mod(kv, srpN)

	B := new(big.Int).Add(kv, gb)
	B.Mod(B, srpN)

	return pad(B, groupByteLen())
}

// computeK hashes N concatenated with g left-padded to N's width, the
// RFC 5054 multiplier parameter.
func computeK() *big.Int {
	nBytes := pad(srpN, groupByteLen())
	gBytes := pad(srpG, groupByteLen())
	return new(big.Int).SetBytes(hash(nBytes, gBytes))
}

// ServerReply holds the intermediate state needed to verify a client proof
// and compute the server's own proof after ProcessReply.
type ServerReply struct {
	sessionKey []byte
	expectedM1 []byte
	proof      []byte
}

// ProcessReply implements the server half of an SRP-6a exchange given the
// username, salt, server private exponent b, stored verifier v, and the
// client's public ephemeral A. It returns a ServerReply that can verify the
// client's M1 proof and, on success, yields the shared session key K and
// the server's own M2 proof.
func ProcessReply(username, salt, privkey, verifier, clientPub []byte) (*ServerReply, error) {
	n := groupByteLen()

	A := new(big.Int).SetBytes(clientPub)
	if new(big.Int).Mod(A, srpN).Sign() == 0 {
		return nil, errSafetyCheck
	}

	B := ComputePublicEphemeral(privkey, verifier)
	u := new(big.Int).SetBytes(hash(pad(A, n), B))
	if u.Sign() == 0 {
		return nil, errSafetyCheck
	}

	v := new(big.Int).SetBytes(verifier)
	b := new(big.Int).SetBytes(privkey)

	vu := new(big.Int).Exp(v, u, srpN)
	base := new(big.Int).Mul(A, vu)
	base.Mod(base, srpN)
	S := new(big.Int).Exp(base, b, srpN)

	K := hash(pad(S, n))

	// The proof hashes g as its minimal big-endian bytes, unlike the
	// multiplier k which pads g to N's width.
	hN := hash(pad(srpN, n))
	hG := hash(srpG.Bytes())
	hNxorG := make([]byte, len(hN))
	for i := range hNxorG {
		hNxorG[i] = hN[i] ^ hG[i]
	}
	hI := hash([]byte(username))

	m1 := hash(hNxorG, hI, salt, pad(A, n), B, K)
	m2 := hash(pad(A, n), m1, K)

	return &ServerReply{
		sessionKey: K,
		expectedM1: m1,
		proof:      m2,
	}, nil
}

// VerifyClient checks the client-supplied M1 proof and, on success, returns
// the shared session key.
func (r *ServerReply) VerifyClient(clientProof []byte) ([]byte, error) {
	if subtle.ConstantTimeCompare(r.expectedM1, clientProof) != 1 {
		return nil, errAuthentication
	}
	return r.sessionKey, nil
}

// Proof returns the server's M2 proof, valid for sending once VerifyClient
// has succeeded.
func (r *ServerReply) Proof() []byte {
	return r.proof
}
