// Package verifier wires the Algorithm Engine, Timestamp Resolver and a
// Credential Resolver into an http.Handler-compatible authentication
// middleware, generalizing the awssigv4 and hmac handlers into one that
// actually verifies the signature cryptographically instead of delegating
// to a remote STS call.
package verifier

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// CommonConfig is shared between server and any future client-facing
// configuration in this package, matching the squash-embedding pattern the
// teacher uses for its own auth configs.
type CommonConfig struct {
	// Region, when set, is compared with the region of the resolved
	// principal's primary identity ARN, and a mismatch is rejected as
	// InvalidCredential; an identity whose ARN has no region (such as an
	// IAM user) is not checked. The credential scope's region is not
	// compared with it.
	Region string `mapstructure:"region"`
	// Service is not consulted by Handler; a request is accepted whatever
	// service its credential scope names.
	Service string `mapstructure:"service"`
}

// ServerConfig configures a Handler.
type ServerConfig struct {
	CommonConfig `mapstructure:",squash"`
	// MaxTimestampDiff is the allowed symmetric clock-skew window (default
	// 15 minutes, per the Timestamp Resolver's default).
	MaxTimestampDiff time.Duration `mapstructure:"max-timestamp-diff"`
}

const defaultMaxTimestampDiff = 15 * time.Minute

// FromMap decodes a ServerConfig out of a generic map, as config/jwt and
// config/hmac do for their own server configs.
func FromMap(m map[string]any) ServerConfig {
	var c ServerConfig
	_ = mapstructure.Decode(m, &c)
	return c
}
