package identity

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// NoKeyRing is the disabled key ring: no current key, no history.
type NoKeyRing struct{}

func (NoKeyRing) CurrentKeyID() string { return "" }
func (NoKeyRing) AllKeyIDs() []string  { return nil }

// NoLookupProtector passes values through untouched.
type NoLookupProtector struct{}

func (NoLookupProtector) Protect(_, plaintext string) (string, error)    { return plaintext, nil }
func (NoLookupProtector) Unprotect(_, ciphertext string) (string, error) { return ciphertext, nil }

// StaticKeyRing is an append-only key ring. Rotation appends a new current
// key id; historical ids remain readable, so in-flight lookups running the
// retry loop never observe a shrinking history.
type StaticKeyRing struct {
	mu   sync.RWMutex
	keys []string
}

// NewStaticKeyRing seeds the ring; the last id is current.
func NewStaticKeyRing(keyIDs ...string) *StaticKeyRing {
	return &StaticKeyRing{keys: append([]string(nil), keyIDs...)}
}

func (r *StaticKeyRing) CurrentKeyID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.keys) == 0 {
		return ""
	}
	return r.keys[len(r.keys)-1]
}

// AllKeyIDs returns ids oldest-to-newest.
func (r *StaticKeyRing) AllKeyIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.keys...)
}

// Rotate appends a new current key id.
func (r *StaticKeyRing) Rotate(keyID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, keyID)
}

// AESLookupProtector encrypts lookup keys with AES-GCM. The nonce is derived
// from an HMAC of the plaintext under the per-key material, so a given
// (keyID, plaintext) pair always produces the same ciphertext; equality
// lookups against protected columns depend on that.
type AESLookupProtector struct {
	mu     sync.RWMutex
	keys   map[string][]byte
	secret []byte
}

var _ LookupProtector = (*AESLookupProtector)(nil)

// NewAESLookupProtector derives per-key-id material from the given secret.
func NewAESLookupProtector(secret []byte) *AESLookupProtector {
	return &AESLookupProtector{
		keys:   make(map[string][]byte),
		secret: append([]byte(nil), secret...),
	}
}

func (p *AESLookupProtector) keyFor(keyID string) []byte {
	p.mu.RLock()
	key, ok := p.keys[keyID]
	p.mu.RUnlock()
	if ok {
		return key
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if key, ok = p.keys[keyID]; ok {
		return key
	}

	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(keyID))
	key = mac.Sum(nil)
	p.keys[keyID] = key
	return key
}

func (p *AESLookupProtector) Protect(keyID, plaintext string) (string, error) {
	if keyID == "" {
		return plaintext, nil
	}

	key := p.keyFor(keyID)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize lookup cipher")
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize lookup cipher")
	}

	nonce := p.nonceFor(key, plaintext, gcm.NonceSize())
	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(append(nonce, sealed...)), nil
}

func (p *AESLookupProtector) Unprotect(keyID, ciphertext string) (string, error) {
	if keyID == "" {
		return ciphertext, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryBadInput, "malformed protected lookup value")
	}

	key := p.keyFor(keyID)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize lookup cipher")
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize lookup cipher")
	}

	if len(raw) < gcm.NonceSize() {
		return "", goerrors.New("malformed protected lookup value", goerrors.CategoryBadInput)
	}

	plain, err := gcm.Open(nil, raw[:gcm.NonceSize()], raw[gcm.NonceSize():], nil)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to unprotect lookup value")
	}

	return string(plain), nil
}

func (p *AESLookupProtector) nonceFor(key []byte, plaintext string, size int) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte("lookup-nonce"))
	mac.Write([]byte(plaintext))
	return mac.Sum(nil)[:size]
}
