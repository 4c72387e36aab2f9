package identity

import "github.com/google/uuid"

// Well-known super-user identity. The super user is synthesized on demand and
// never persisted; its id is fixed so downstream authorization can recognize
// it across processes.
const (
	SuperUserID            = "87ba0a16-7253-4a6f-a8d4-82dfa1f723c1"
	SuperUserSecurityStamp = "a2ecc018-9b97-420b-815e-9d5b595bfa86"

	superUserDefaultUserName    = "superuser"
	superUserDefaultEmail       = "superuser@email.com"
	superUserDefaultPhoneNumber = "9999999999"
)

// superUserSynthesizer builds the virtual super-user entity for the lookup
// shortcut paths. The password hash is computed on demand from the configured
// password; nothing is read from or written to the backing store.
type superUserSynthesizer struct {
	opts       SuperUserOptions
	hasher     PasswordHasher
	normalizer LookupNormalizer
}

func (s superUserSynthesizer) enabled() bool { return s.opts.Enabled }

func (s superUserSynthesizer) username() string {
	if s.opts.Username != "" {
		return s.opts.Username
	}
	return superUserDefaultUserName
}

func (s superUserSynthesizer) email() string {
	if s.opts.Email != "" {
		return s.opts.Email
	}
	return superUserDefaultEmail
}

func (s superUserSynthesizer) phoneNumber() string {
	if s.opts.PhoneNumber != "" {
		return s.opts.PhoneNumber
	}
	return superUserDefaultPhoneNumber
}

// matchesID reports whether id is the well-known super-user id.
func (s superUserSynthesizer) matchesID(id string) bool {
	return s.enabled() && id == SuperUserID
}

func (s superUserSynthesizer) matchesName(normalizedName string) bool {
	return s.enabled() && normalizedName == maybeNormalizeName(s.normalizer, s.username())
}

func (s superUserSynthesizer) matchesEmail(normalizedEmail string) bool {
	return s.enabled() && normalizedEmail == maybeNormalizeEmail(s.normalizer, s.email())
}

func (s superUserSynthesizer) matchesPhone(phoneNumber string) bool {
	return s.enabled() && phoneNumber == s.phoneNumber()
}

func (s superUserSynthesizer) instance() *User {
	user := &User{
		ID:                   SuperUserID,
		UserName:             s.username(),
		Email:                s.email(),
		PhoneNumber:          s.phoneNumber(),
		EmailConfirmed:       true,
		PhoneNumberConfirmed: true,
		SecurityStamp:        SuperUserSecurityStamp,
		ConcurrencyStamp:     uuid.NewString(),
	}
	user.NormalizedUserName = maybeNormalizeName(s.normalizer, user.UserName)
	user.NormalizedEmail = maybeNormalizeEmail(s.normalizer, user.Email)

	if s.hasher != nil {
		if s.opts.Password == "" {
			// No configured password: an unguessable random hash keeps the
			// account closed instead of carrying an empty hash around.
			user.PasswordHash = RandomPasswordHash(s.hasher)
		} else if hash, err := s.hasher.HashPassword(s.opts.Password); err == nil {
			user.PasswordHash = hash
		}
	}

	return user
}
