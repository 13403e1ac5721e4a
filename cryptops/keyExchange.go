////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package cryptops contains the client side cryptographic operations of the
// confidential computation protocol: X25519 key agreement and the record
// cipher used to move fields in and out of the MPC engine.
package cryptops

import (
	"encoding/hex"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/curve25519"
)

// KeySize is the length of scalars, points and shared secrets
const KeySize = curve25519.ScalarSize

// ErrInvalidPoint is returned when a counterparty public key is not a usable
// X25519 point.
var ErrInvalidPoint = errors.New("invalid curve point")

// PrivateKey is an X25519 scalar. It never leaves the party that made it.
type PrivateKey [KeySize]byte

// PublicKey is an X25519 point.
type PublicKey [KeySize]byte

// SharedSecret is the output of the key agreement.
type SharedSecret [KeySize]byte

// KeyPair holds a party's ephemeral key material for one session.
type KeyPair struct {
	Private PrivateKey
	Public  PublicKey
}

// GenerateKeyPair draws a private scalar from rng and computes its public
// point. rng must be a cryptographically secure source.
func GenerateKeyPair(rng io.Reader) (*KeyPair, error) {
	var priv PrivateKey
	if _, err := io.ReadFull(rng, priv[:]); err != nil {
		return nil, errors.Wrap(err, "failed to read private scalar")
	}
	kp, err := KeyPairFromPrivate(priv)
	Zero(priv[:])
	return kp, err
}

// KeyPairFromPrivate recomputes the public point of a stored scalar
func KeyPairFromPrivate(priv PrivateKey) (*KeyPair, error) {
	kp := &KeyPair{Private: priv}
	pub, err := curve25519.X25519(kp.Private[:], curve25519.Basepoint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute public point")
	}
	copy(kp.Public[:], pub)

	return kp, nil
}

// DeriveSharedSecret computes X25519(priv, peer). derive(a, B) equals
// derive(b, A) for any two key pairs.
func DeriveSharedSecret(priv PrivateKey, peer PublicKey) (SharedSecret, error) {
	var secret SharedSecret
	out, err := curve25519.X25519(priv[:], peer[:])
	if err != nil {
		// low order points produce an all zero output
		return secret, errors.Wrapf(ErrInvalidPoint, "%s: %v", peer, err)
	}
	copy(secret[:], out)
	Zero(out)
	return secret, nil
}

// NewPublicKey validates the length of b and copies it into a PublicKey.
func NewPublicKey(b []byte) (PublicKey, error) {
	var pub PublicKey
	if len(b) != KeySize {
		return pub, errors.Wrapf(ErrInvalidPoint,
			"public key must be %d bytes, received %d", KeySize, len(b))
	}
	copy(pub[:], b)
	return pub, nil
}

// NewPrivateKey validates the length of b and copies it into a PrivateKey.
func NewPrivateKey(b []byte) (PrivateKey, error) {
	var priv PrivateKey
	if len(b) != KeySize {
		return priv, errors.Errorf("private key must be %d bytes, "+
			"received %d", KeySize, len(b))
	}
	copy(priv[:], b)
	return priv, nil
}

// Bytes returns a copy of the key as a slice
func (p PublicKey) Bytes() []byte {
	out := make([]byte, KeySize)
	copy(out, p[:])
	return out
}

// String returns the key hex encoded. This functions satisfies the
// fmt.Stringer interface.
func (p PublicKey) String() string {
	return hex.EncodeToString(p[:])
}

// Destroy overwrites the private scalar.
func (kp *KeyPair) Destroy() {
	Zero(kp.Private[:])
}

// Destroy overwrites the secret.
func (s *SharedSecret) Destroy() {
	Zero(s[:])
}

// Zero overwrites a byte slice with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
