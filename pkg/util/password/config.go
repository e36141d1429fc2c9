package password

import "github.com/Alijeyrad/clinicflow_backend/config"

// Config holds the Argon2id parameters and the minimum accepted length.
type Config struct {
	Algorithm   string
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// LowMemoryMode caps memory at 32 MiB for constrained hosts.
	LowMemoryMode bool

	MinLength int
}

func (c Config) ToParams() *Params {
	def := DefaultConfig()
	p := &Params{
		Memory:      orDefault(c.MemoryKiB, def.MemoryKiB),
		Iterations:  orDefault(c.Iterations, def.Iterations),
		Parallelism: c.Parallelism,
		SaltLength:  orDefault(c.SaltLength, def.SaltLength),
		KeyLength:   orDefault(c.KeyLength, def.KeyLength),
	}
	if p.Parallelism == 0 {
		p.Parallelism = def.Parallelism
	}
	if c.LowMemoryMode && p.Memory > 32*1024 {
		p.Memory = 32 * 1024
	}
	return p
}

func orDefault(v, def uint32) uint32 {
	if v == 0 {
		return def
	}
	return v
}

// DefaultConfig follows the OWASP Argon2id recommendation.
func DefaultConfig() Config {
	return Config{
		Algorithm:   "argon2id",
		MemoryKiB:   64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
		MinLength:   6,
	}
}

func FromCentralConfig(c config.PasswordConfig) Config {
	return Config{
		Algorithm:     c.Algorithm,
		MemoryKiB:     c.MemoryKiB,
		Iterations:    c.Iterations,
		Parallelism:   c.Parallelism,
		SaltLength:    c.SaltLength,
		KeyLength:     c.KeyLength,
		LowMemoryMode: c.LowMemoryMode,
		MinLength:     c.MinLength,
	}
}
