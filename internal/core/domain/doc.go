// Package domain defines the core business entities for docqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Shape, Slide, Deck: Positioned text boxes extracted from presentations
//   - MilestoneRecord, SpanRecord, StatusRecord: Structured timeline output
//   - Document, Section, Chunk: Extracted text and its retrievable units
//   - Answer: A grounded response with cited sources
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
