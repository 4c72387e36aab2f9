package identity

import (
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// KeyKind selects how entity ids are generated at create time.
type KeyKind int

const (
	// KeyKindUUID generates canonical UUID strings.
	KeyKindUUID KeyKind = iota
	// KeyKindString generates string ids derived from UUIDs.
	KeyKindString
	// KeyKindNumeric relies on store-side auto-increment. Generation is not
	// supported natively; asking for one is a configuration error.
	KeyKindNumeric
)

// GenerateKey produces a new id for the given kind.
func GenerateKey(kind KeyKind) (string, error) {
	switch kind {
	case KeyKindUUID, KeyKindString:
		return uuid.NewString(), nil
	default:
		return "", ErrUnsupportedKeyType
	}
}

// DeterministicKey derives a stable UUID from seed, so the same input always
// maps to the same id. Used when StoreOptions.DeterministicUserIDs is set.
func DeterministicKey(seed string) (string, error) {
	id, err := hashid.NewUUID(seed)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
