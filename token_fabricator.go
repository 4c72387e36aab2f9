package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// selfGeneratedKeyBytes is the size of the ephemeral signing key minted when
// no key material is configured.
const selfGeneratedKeyBytes = 128

// TokenFabricator issues bearer tokens for resolved identities. Registered
// claims sub, jti, iat, nbf, exp, iss, and aud are always present; jti is
// fresh per call. Safe for concurrent use.
type TokenFabricator struct {
	opts   TokenOptions
	logger Logger
	clock  Clock

	mu            sync.Mutex
	signingKey    []byte
	encryptingKey []byte
}

// TokenFabricatorOption mutates a TokenFabricator during construction.
type TokenFabricatorOption func(*TokenFabricator)

// WithTokenLogger replaces the default stdout logger.
func WithTokenLogger(logger Logger) TokenFabricatorOption {
	return func(f *TokenFabricator) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithTokenClock replaces the wall clock used for token timestamps.
func WithTokenClock(clock Clock) TokenFabricatorOption {
	return func(f *TokenFabricator) {
		if clock != nil {
			f.clock = clock
		}
	}
}

// NewTokenFabricator builds a fabricator from the given options.
func NewTokenFabricator(opts TokenOptions, options ...TokenFabricatorOption) *TokenFabricator {
	f := &TokenFabricator{
		opts:   opts,
		logger: defLogger{},
		clock:  time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// CreateToken issues a token for the given subject. Extra claims are carried
// into the payload as given; repeated claim types accumulate into arrays.
func (f *TokenFabricator) CreateToken(user UserIDProvider, extraClaims []Claim) (string, error) {
	subject := ""
	if user != nil {
		subject = user.GetID()
	}

	now := f.clock()
	skew := time.Duration(f.opts.ClockSkewSeconds) * time.Second
	ttl := time.Duration(f.opts.TimeToLiveSeconds) * time.Second

	claims := jwt.MapClaims{
		"sub": subject,
		"jti": uuid.NewString(),
		"iat": jwt.NewNumericDate(now),
		"nbf": jwt.NewNumericDate(now.Add(-skew)),
		"exp": jwt.NewNumericDate(now.Add(ttl)),
		"iss": f.opts.Issuer,
		"aud": f.opts.Audience,
	}

	for _, claim := range extraClaims {
		if claim.Type == "" {
			continue
		}
		switch claim.Type {
		// Registered claims are owned by the fabricator; a caller claim must
		// not replace a numeric timestamp with a string.
		case "sub", "jti", "iat", "nbf", "exp", "iss", "aud":
			continue
		}
		existing, ok := claims[claim.Type]
		if !ok {
			claims[claim.Type] = claim.Value
			continue
		}
		switch prior := existing.(type) {
		case string:
			claims[claim.Type] = []string{prior, claim.Value}
		case []string:
			claims[claim.Type] = append(prior, claim.Value)
		default:
			claims[claim.Type] = claim.Value
		}
	}

	signed, err := f.sign(claims)
	if err != nil {
		return "", err
	}

	if !f.opts.Encrypt {
		return signed, nil
	}
	return f.encrypt(signed)
}

// VerifyToken parses and validates a token issued by this fabricator and
// returns its claim payload.
func (f *TokenFabricator) VerifyToken(tokenString string) (map[string]any, error) {
	if f.opts.Encrypt {
		decrypted, err := f.decrypt(tokenString)
		if err != nil {
			return nil, err
		}
		tokenString = decrypted
	}

	skew := time.Duration(f.opts.ClockSkewSeconds) * time.Second
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return f.keyMaterial(), nil
	}, jwt.WithLeeway(skew), jwt.WithTimeFunc(func() time.Time { return f.clock() }))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "token validation failed").
			WithCode(goerrors.CodeUnauthorized)
	}
	if !token.Valid {
		return nil, goerrors.New("token is not valid", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized)
	}

	return claims, nil
}

func (f *TokenFabricator) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(f.keyMaterial())
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign token")
	}
	return signed, nil
}

// encrypt wraps a signed compact token in a JWE envelope using direct
// symmetric encryption.
func (f *TokenFabricator) encrypt(signed string) (string, error) {
	key := f.encryptionKey()
	encrypter, err := jose.NewEncrypter(
		jose.A256GCM,
		jose.Recipient{Algorithm: jose.DIRECT, Key: key},
		(&jose.EncrypterOptions{}).WithContentType("JWT"),
	)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build token encrypter")
	}

	object, err := encrypter.Encrypt([]byte(signed))
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encrypt token")
	}

	compact, err := object.CompactSerialize()
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to serialize encrypted token")
	}
	return compact, nil
}

func (f *TokenFabricator) decrypt(tokenString string) (string, error) {
	object, err := jose.ParseEncrypted(tokenString,
		[]jose.KeyAlgorithm{jose.DIRECT},
		[]jose.ContentEncryption{jose.A256GCM},
	)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryAuth, "failed to parse encrypted token").
			WithCode(goerrors.CodeUnauthorized)
	}

	plaintext, err := object.Decrypt(f.encryptionKey())
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryAuth, "failed to decrypt token").
			WithCode(goerrors.CodeUnauthorized)
	}
	return string(plaintext), nil
}

// keyMaterial returns the signing key, minting an ephemeral one at first use
// when none is configured. Tokens signed with an ephemeral key become
// unverifiable after a restart; the warning makes the hazard visible.
func (f *TokenFabricator) keyMaterial() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.signingKey != nil {
		return f.signingKey
	}

	if f.opts.SigningKey != "" {
		f.signingKey = []byte(f.opts.SigningKey)
		return f.signingKey
	}

	key := make([]byte, selfGeneratedKeyBytes)
	if _, err := rand.Read(key); err != nil {
		panic("identity: unable to read from the system entropy source: " + err.Error())
	}
	f.signingKey = key
	f.logger.Warn("no signing key configured; generated an ephemeral %d byte key, issued tokens will not verify after a restart", selfGeneratedKeyBytes)
	return f.signingKey
}

// encryptionKey derives the 32 byte content-encryption key. The encrypting
// key material defaults to the signing key material.
func (f *TokenFabricator) encryptionKey() []byte {
	material := []byte(f.opts.EncryptingKey)
	if len(material) == 0 {
		material = f.keyMaterial()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.encryptingKey == nil {
		sum := sha256.Sum256(material)
		f.encryptingKey = sum[:]
	}
	return f.encryptingKey
}
