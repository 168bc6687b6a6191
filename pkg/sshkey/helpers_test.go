// Copyright (c) 2026 Jeremy Hahn
// Copyright (c) 2026 Automate The Things, LLC
//
// This file is part of go-sshkeys.
//
// go-sshkeys is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package sshkey

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-sshkeys/pkg/sshbuf"
)

// decodeSignatureAlg extracts the algorithm identifier from an SSH wire
// signature.
func decodeSignatureAlg(sig []byte) (string, error) {
	r := sshbuf.NewReader(sig)
	name, err := r.String()
	if err != nil {
		return "", err
	}
	return string(name), nil
}

// mustGenerate generates a key or fails the test.
func mustGenerate(t *testing.T, alg string, opts *GenerateOpts) PrivateKey {
	t.Helper()
	key, err := GenerateKey(alg, opts)
	require.NoError(t, err)
	return key
}

// softAuthenticator is an in-memory security key. Credentials are indexed by
// key handle; the counter increments on every signature.
type softAuthenticator struct {
	creds   map[string]*softCredential
	counter uint32
	// dropUserPresence omits the user-presence flag from signatures.
	dropUserPresence bool
}

type softCredential struct {
	coseAlg     int64
	application string
	ecdsaKey    *ecdsa.PrivateKey
	edKey       ed25519.PrivateKey
}

func newSoftAuthenticator() *softAuthenticator {
	return &softAuthenticator{creds: map[string]*softCredential{}}
}

func (a *softAuthenticator) Enroll(req SKEnrollRequest) (*SKEnrollment, error) {
	handle := fmt.Sprintf("cred-%d", len(a.creds))
	cred := &softCredential{coseAlg: req.Algorithm, application: req.Application}
	enrollment := &SKEnrollment{KeyHandle: []byte(handle), Flags: skFlagUserPresence}

	switch req.Algorithm {
	case coseAlgES256:
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, err
		}
		cred.ecdsaKey = key
		enrollment.PublicKey = elliptic.Marshal(elliptic.P256(), key.X, key.Y) //nolint:staticcheck
	case coseAlgEdDSA:
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		cred.edKey = priv
		enrollment.PublicKey = pub
	default:
		return nil, fmt.Errorf("unsupported COSE algorithm %d", req.Algorithm)
	}
	a.creds[handle] = cred
	return enrollment, nil
}

func (a *softAuthenticator) Sign(req SKSignRequest) (*SKSignature, error) {
	cred, ok := a.creds[string(req.KeyHandle)]
	if !ok {
		return nil, fmt.Errorf("unknown credential %q", req.KeyHandle)
	}
	a.counter++
	flags := byte(skFlagUserPresence)
	if a.dropUserPresence {
		flags = 0
	}

	appHash := sha256.Sum256([]byte(req.Application))
	msg := make([]byte, 0, sha256.Size*2+5)
	msg = append(msg, appHash[:]...)
	msg = append(msg, flags)
	msg = binary.BigEndian.AppendUint32(msg, a.counter)
	msg = append(msg, req.Digest...)

	out := &SKSignature{Flags: flags, Counter: a.counter}
	switch cred.coseAlg {
	case coseAlgES256:
		digest := sha256.Sum256(msg)
		rr, ss, err := ecdsa.Sign(rand.Reader, cred.ecdsaKey, digest[:])
		if err != nil {
			return nil, err
		}
		sig := make([]byte, 64)
		rr.FillBytes(sig[:32])
		ss.FillBytes(sig[32:])
		out.Signature = sig
	case coseAlgEdDSA:
		out.Signature = ed25519.Sign(cred.edKey, msg)
	}
	return out, nil
}
