package config

import "errors"

var (
	// ErrNotFound is returned by Load when a named builtin config does not
	// exist in the embedded registry.
	ErrNotFound = errors.New("config: not found")

	// ErrNoSecrets is returned when a component requires a signing key but
	// NOMAD_AGENT_SECRETS was never set or the requested name is absent
	// from it.
	ErrNoSecrets = errors.New("config: no secrets configured")

	// ErrKMSUnavailable is returned by SecretsDocument.PrivateKey for a
	// "kms" descriptor; no KMS client is wired in this build.
	ErrKMSUnavailable = errors.New("config: kms signing is not implemented in this build")
)
