// Package file provides file-backed implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML or YAML configuration, exposed as dotted keys
//   - PromptStore: prompt templates loaded from a directory with built-in fallbacks
package file
