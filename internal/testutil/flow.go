package testutil

// FixedTokenGenerator returns the same batch correlation token every time.
//
// The ingest applier tags every log line of a block with a token. Tests
// that compare log output use this generator instead of UUIDv7.
//
// Thread-safety: FixedTokenGenerator is stateless and safe for concurrent use.
type FixedTokenGenerator struct {
	token string
}

// NewFixedTokenGenerator creates a new fixed token generator.
// If token is empty, Generate() returns "test-token-default".
func NewFixedTokenGenerator(token string) *FixedTokenGenerator {
	if token == "" {
		token = "test-token-default"
	}
	return &FixedTokenGenerator{token: token}
}

// Generate returns the fixed token.
//
// Implements ingest.TokenGenerator.
func (g *FixedTokenGenerator) Generate() string {
	return g.token
}
