package password

import "unicode/utf8"

// Hasher hashes new passwords with one parameter set and verifies hashes
// made under any parameter set.
type Hasher struct {
	params    *Params
	minLength int
}

func NewHasher(cfg Config) *Hasher {
	minLength := cfg.MinLength
	if minLength <= 0 {
		minLength = DefaultConfig().MinLength
	}
	return &Hasher{params: cfg.ToParams(), minLength: minLength}
}

func (h *Hasher) MinLength() int { return h.minLength }

// CheckLength counts characters, not bytes.
func (h *Hasher) CheckLength(password string) error {
	if utf8.RuneCountInString(password) < h.minLength {
		return ErrTooShort
	}
	return nil
}

func (h *Hasher) Hash(password string) (string, error) {
	return hashWith(password, h.params)
}

// Verify returns nil on a match and ErrMismatch otherwise.
func (h *Hasher) Verify(encoded, password string) error {
	return verify(encoded, password)
}

// NeedsRehash reports whether encoded was made with other parameters than
// the hasher's, or cannot be read at all.
func (h *Hasher) NeedsRehash(encoded string) bool {
	p, _, _, err := decode(encoded)
	if err != nil {
		return true
	}
	return p.Memory != h.params.Memory ||
		p.Iterations != h.params.Iterations ||
		p.Parallelism != h.params.Parallelism ||
		p.KeyLength != h.params.KeyLength
}
