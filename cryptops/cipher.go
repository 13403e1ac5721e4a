////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package cryptops

// cipher.go contains the record cipher. Every field of a record is encoded
// as a 32 byte big endian block and encrypted under a key and nonce pair
// derived from the shared secret and the caller's 16 byte nonce. A single
// Poly1305 tag authenticates the whole record.

import (
	"crypto/cipher"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"

	"github.com/pkg/errors"
	"gitlab.com/xx_network/crypto/large"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	// BlockSize is the width of one encrypted field
	BlockSize = 32
	// NonceSize is the width of the caller supplied nonce
	NonceSize = 16
	// TagSize is the width of the record authentication tag
	TagSize = chacha20poly1305.Overhead
)

// ErrDecryptionMismatch is returned when a ciphertext was not produced under
// the supplied key and nonce, or was modified.
var ErrDecryptionMismatch = errors.New("ciphertext does not match key and nonce")

// ErrFieldOverflow is returned when a field does not fit in a block.
var ErrFieldOverflow = errors.New("field does not fit in 256 bits")

var recordInfo = []byte("veil record cipher v1")

// Nonce is supplied per encryption. It must never be reused with the same
// key for a different record.
type Nonce [NonceSize]byte

// Block is one encrypted field.
type Block [BlockSize]byte

// Ciphertext is an encrypted record.
type Ciphertext struct {
	Blocks []Block
	Tag    [TagSize]byte
}

// Context wraps a shared secret and is used for both directions. It holds
// no state besides the key.
type Context struct {
	key SharedSecret
}

// NewContext builds a cipher context over the passed secret.
func NewContext(secret SharedSecret) *Context {
	return &Context{key: secret}
}

// NewNonce reads a fresh nonce from rng.
func NewNonce(rng io.Reader) (Nonce, error) {
	var n Nonce
	if _, err := io.ReadFull(rng, n[:]); err != nil {
		return n, errors.Wrap(err, "failed to read nonce")
	}
	return n, nil
}

// Encrypt encrypts each field into its own block. The output is fully
// determined by the key, nonce and fields.
func (c *Context) Encrypt(fields []*large.Int, nonce Nonce) (*Ciphertext, error) {
	plaintext := make([]byte, 0, len(fields)*BlockSize)
	defer func() { Zero(plaintext) }()

	for i, f := range fields {
		if f == nil {
			return nil, errors.Errorf("field %d is nil", i)
		}
		if f.BigInt().Sign() < 0 {
			return nil, errors.Errorf("field %d is negative", i)
		}
		if f.BitLen() > BlockSize*8 {
			return nil, errors.Wrapf(ErrFieldOverflow, "field %d is %d bits",
				i, f.BitLen())
		}
		plaintext = append(plaintext, f.LeftpadBytes(BlockSize)...)
	}

	aead, aeadNonce, err := c.recordCipher(nonce)
	if err != nil {
		return nil, err
	}
	sealed := aead.Seal(nil, aeadNonce, plaintext, arity(len(fields)))

	ct := &Ciphertext{Blocks: make([]Block, len(fields))}
	for i := range ct.Blocks {
		copy(ct.Blocks[i][:], sealed[i*BlockSize:(i+1)*BlockSize])
	}
	copy(ct.Tag[:], sealed[len(plaintext):])

	return ct, nil
}

// Decrypt is the inverse of Encrypt.
func (c *Context) Decrypt(ct *Ciphertext, nonce Nonce) ([]*large.Int, error) {
	if ct == nil {
		return nil, errors.New("cannot decrypt nil ciphertext")
	}

	sealed := make([]byte, 0, len(ct.Blocks)*BlockSize+TagSize)
	for i := range ct.Blocks {
		sealed = append(sealed, ct.Blocks[i][:]...)
	}
	sealed = append(sealed, ct.Tag[:]...)

	aead, aeadNonce, err := c.recordCipher(nonce)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, aeadNonce, sealed, arity(len(ct.Blocks)))
	if err != nil {
		return nil, errors.Wrapf(ErrDecryptionMismatch,
			"record of %d fields under nonce %s", len(ct.Blocks),
			hex.EncodeToString(nonce[:]))
	}
	defer Zero(plaintext)

	fields := make([]*large.Int, len(ct.Blocks))
	for i := range fields {
		fields[i] = large.NewIntFromBytes(plaintext[i*BlockSize : (i+1)*BlockSize])
	}
	return fields, nil
}

// recordCipher expands the shared secret and nonce into a ChaCha20-Poly1305
// key and its 12 byte nonce.
func (c *Context) recordCipher(nonce Nonce) (cipher.AEAD, []byte, error) {
	kdf := hkdf.New(sha256.New, c.key[:], nonce[:], recordInfo)
	material := make([]byte, chacha20poly1305.KeySize+chacha20poly1305.NonceSize)
	if _, err := io.ReadFull(kdf, material); err != nil {
		return nil, nil, errors.Wrap(err, "failed to expand record key")
	}
	defer Zero(material[:chacha20poly1305.KeySize])

	aead, err := chacha20poly1305.New(material[:chacha20poly1305.KeySize])
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to build record cipher")
	}
	return aead, material[chacha20poly1305.KeySize:], nil
}

// arity binds the field count into the tag
func arity(n int) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(n))
	return b
}

// Increment returns the nonce plus one, read as a little endian 128 bit
// integer. The engine answers a request under the receiver's nonce plus one.
func (n Nonce) Increment() Nonce {
	out := n
	for i := range out {
		out[i]++
		if out[i] != 0 {
			break
		}
	}
	return out
}

// String returns the nonce hex encoded
func (n Nonce) String() string {
	return hex.EncodeToString(n[:])
}
