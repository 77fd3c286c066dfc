package config

import (
	"embed"
	"fmt"
)

//go:embed builtin/*.json
var builtinFS embed.FS

// builtinConfig returns the embedded config document named name (without
// its .json extension) — e.g. "local-mock" for local-mock.json.
func builtinConfig(name string) ([]byte, error) {
	data, err := builtinFS.ReadFile("builtin/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("config: builtin %q: %w", name, ErrNotFound)
	}
	return data, nil
}
