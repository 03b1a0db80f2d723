// Package passkeytest is a software authenticator for tests. It produces the
// same PublicKeyCredential JSON a browser would send after
// navigator.credentials.create/get, signed with a real P-256 key, so the
// server side runs the full go-webauthn verification path.
package passkeytest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-webauthn/webauthn/protocol"
)

// Authenticator data flags.
const (
	flagUserPresent  byte = 0x01
	flagUserVerified byte = 0x04
	flagAttested     byte = 0x40
)

// COSE identifiers for an ES256 P-256 key.
const (
	coseKeyTypeEC2 = 2
	coseAlgES256   = -7
	coseCurveP256  = 1
)

// AAGUID reported by every test authenticator.
var AAGUID = [16]byte{0xba, 0xc0, 0xff, 0x1c, 0xe0, 0x00, 0x4d, 0x2a, 0x9b, 0x51, 0x7e, 0x57, 0x00, 0x00, 0x00, 0x01}

var encMode = func() cbor.EncMode {
	m, err := cbor.CTAP2EncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return m
}()

type coseKey struct {
	KeyType   int64  `cbor:"1,keyasint"`
	Algorithm int64  `cbor:"3,keyasint"`
	Curve     int64  `cbor:"-1,keyasint"`
	X         []byte `cbor:"-2,keyasint"`
	Y         []byte `cbor:"-3,keyasint"`
}

type attestationObject struct {
	Format   string         `cbor:"fmt"`
	AttStmt  map[string]any `cbor:"attStmt"`
	AuthData []byte         `cbor:"authData"`
}

type clientData struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Origin    string `json:"origin"`
}

// Authenticator holds one resident credential. Every assertion advances its
// signature counter by one, like a hardware key.
type Authenticator struct {
	RPID   string
	Origin string
	// Transports is reported on registration.
	Transports []string
	// ZeroCounter makes the authenticator report 0 on every assertion, the
	// way synced platform passkeys do.
	ZeroCounter bool

	mu         sync.Mutex
	key        *ecdsa.PrivateKey
	id         []byte
	userHandle []byte
	counter    uint32
}

// New creates an authenticator with a fresh key pair and credential id.
func New(rpID, origin string) (*Authenticator, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	id := make([]byte, 32)
	if _, err := rand.Read(id); err != nil {
		return nil, err
	}
	return &Authenticator{
		RPID:       rpID,
		Origin:     origin,
		Transports: []string{"internal", "hybrid"},
		key:        key,
		id:         id,
	}, nil
}

// ID is the raw credential id.
func (a *Authenticator) ID() []byte { return append([]byte(nil), a.id...) }

// EncodedID is the credential id as it appears on the wire.
func (a *Authenticator) EncodedID() string { return base64.RawURLEncoding.EncodeToString(a.id) }

// Counter is the value carried by the last signature.
func (a *Authenticator) Counter() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counter
}

// SetCounter rewinds or advances the counter; the next assertion reports n+1.
func (a *Authenticator) SetCounter(n uint32) {
	a.mu.Lock()
	a.counter = n
	a.mu.Unlock()
}

// Clone copies the private key and counter, modelling an extracted key.
func (a *Authenticator) Clone() *Authenticator {
	a.mu.Lock()
	defer a.mu.Unlock()
	return &Authenticator{
		RPID:        a.RPID,
		Origin:      a.Origin,
		Transports:  append([]string(nil), a.Transports...),
		ZeroCounter: a.ZeroCounter,
		key:         a.key,
		id:          append([]byte(nil), a.id...),
		userHandle:  append([]byte(nil), a.userHandle...),
		counter:     a.counter,
	}
}

// Register answers creation options the way navigator.credentials.create does.
func (a *Authenticator) Register(creation *protocol.CredentialCreation) (json.RawMessage, error) {
	if creation == nil {
		return nil, errors.New("passkeytest: nil creation options")
	}
	opts := creation.Response
	if opts.RelyingParty.ID != "" && opts.RelyingParty.ID != a.RPID {
		return nil, fmt.Errorf("passkeytest: rp id %q, authenticator bound to %q", opts.RelyingParty.ID, a.RPID)
	}
	handle, err := userHandle(opts.User.ID)
	if err != nil {
		return nil, err
	}
	return a.Attest(opts.Challenge.String(), handle)
}

// Attest builds a "none" attestation over an arbitrary challenge. Tests use it
// directly to answer a challenge the server never issued.
func (a *Authenticator) Attest(challenge string, handle []byte) (json.RawMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.userHandle = append([]byte(nil), handle...)

	cdj, err := json.Marshal(clientData{Type: "webauthn.create", Challenge: challenge, Origin: a.Origin})
	if err != nil {
		return nil, err
	}

	pub, err := encMode.Marshal(coseKey{
		KeyType:   coseKeyTypeEC2,
		Algorithm: coseAlgES256,
		Curve:     coseCurveP256,
		X:         a.key.PublicKey.X.FillBytes(make([]byte, 32)),
		Y:         a.key.PublicKey.Y.FillBytes(make([]byte, 32)),
	})
	if err != nil {
		return nil, err
	}

	authData := a.authData(flagUserPresent|flagUserVerified|flagAttested, a.counter)
	authData = append(authData, AAGUID[:]...)
	authData = binary.BigEndian.AppendUint16(authData, uint16(len(a.id))) // #nosec G115 - id is 32 bytes
	authData = append(authData, a.id...)
	authData = append(authData, pub...)

	att, err := encMode.Marshal(attestationObject{Format: "none", AttStmt: map[string]any{}, AuthData: authData})
	if err != nil {
		return nil, err
	}

	resp := protocol.CredentialCreationResponse{
		PublicKeyCredential: protocol.PublicKeyCredential{
			Credential:              protocol.Credential{ID: a.EncodedID(), Type: string(protocol.PublicKeyCredentialType)},
			RawID:                   a.id,
			AuthenticatorAttachment: string(protocol.Platform),
		},
		AttestationResponse: protocol.AuthenticatorAttestationResponse{
			AuthenticatorResponse: protocol.AuthenticatorResponse{ClientDataJSON: cdj},
			Transports:            a.Transports,
			AttestationObject:     att,
		},
	}
	return json.Marshal(resp)
}

// Assert answers request options the way navigator.credentials.get does.
func (a *Authenticator) Assert(assertion *protocol.CredentialAssertion) (json.RawMessage, error) {
	if assertion == nil {
		return nil, errors.New("passkeytest: nil request options")
	}
	return a.Sign(assertion.Response.Challenge.String())
}

// Sign produces an assertion over challenge, advancing the counter first.
func (a *Authenticator) Sign(challenge string) (json.RawMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var reported uint32
	if !a.ZeroCounter {
		a.counter++
		reported = a.counter
	}

	cdj, err := json.Marshal(clientData{Type: "webauthn.get", Challenge: challenge, Origin: a.Origin})
	if err != nil {
		return nil, err
	}
	authData := a.authData(flagUserPresent|flagUserVerified, reported)

	cdHash := sha256.Sum256(cdj)
	digest := sha256.Sum256(append(append([]byte(nil), authData...), cdHash[:]...))
	sig, err := ecdsa.SignASN1(rand.Reader, a.key, digest[:])
	if err != nil {
		return nil, err
	}

	resp := protocol.CredentialAssertionResponse{
		PublicKeyCredential: protocol.PublicKeyCredential{
			Credential:              protocol.Credential{ID: a.EncodedID(), Type: string(protocol.PublicKeyCredentialType)},
			RawID:                   a.id,
			AuthenticatorAttachment: string(protocol.Platform),
		},
		AssertionResponse: protocol.AuthenticatorAssertionResponse{
			AuthenticatorResponse: protocol.AuthenticatorResponse{ClientDataJSON: cdj},
			AuthenticatorData:     authData,
			Signature:             sig,
			UserHandle:            a.userHandle,
		},
	}
	return json.Marshal(resp)
}

func (a *Authenticator) authData(flags byte, counter uint32) []byte {
	rpHash := sha256.Sum256([]byte(a.RPID))
	out := make([]byte, 0, 37)
	out = append(out, rpHash[:]...)
	out = append(out, flags)
	return binary.BigEndian.AppendUint32(out, counter)
}

// userHandle accepts the user id both as produced in process and as decoded
// from JSON by a client.
func userHandle(v any) ([]byte, error) {
	switch id := v.(type) {
	case protocol.URLEncodedBase64:
		return []byte(id), nil
	case []byte:
		return id, nil
	case string:
		return base64.RawURLEncoding.DecodeString(id)
	default:
		return nil, fmt.Errorf("passkeytest: unsupported user id type %T", v)
	}
}
