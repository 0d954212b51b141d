package chain

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadBlock reads a Block from a JSON file in the format documented by
// the CLI surface: hex-encoded keys and values, one object per
// transaction.
func LoadBlock(path string) (Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Block{}, fmt.Errorf("chain: reading block file %q: %w", path, err)
	}
	var b Block
	if err := json.Unmarshal(data, &b); err != nil {
		return Block{}, fmt.Errorf("chain: parsing block file %q: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return Block{}, err
	}
	return b, nil
}

// SaveBlock writes block to path as indented JSON.
func SaveBlock(path string, b Block) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("chain: marshaling block: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("chain: writing block file %q: %w", path, err)
	}
	return nil
}
