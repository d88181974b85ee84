// Package vectorstore holds the retrieval index backends.
//
// Subpackages:
//   - local: chunks and vectors in a SQLite file, searched by brute-force cosine
//   - chroma: a Chroma collection per index generation
package vectorstore
