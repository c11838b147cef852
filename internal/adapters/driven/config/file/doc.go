// Package file provides file-based implementations of configuration and
// prompt storage. Configuration lives in a TOML file; prompts are plain
// text files seeded from embedded defaults so users can edit them.
package file
