// Package connectors provides document sources. The only source is the
// local filesystem folder in connectors/filesystem.
package connectors
