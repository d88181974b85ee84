// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentSource: Walks and watches the document folder
//   - Normaliser / NormaliserRegistry: Extracts text and slide shapes per format
//   - PostProcessor: Splits document text into chunks
//   - EmbeddingService: Turns text into fixed-length vectors
//   - VectorStore: Persists chunk vectors and searches them
//   - TimelineStore: Persists extracted milestones, spans and statuses
//   - LLMService: Generates grounded answers
//   - ConfigStore / PromptStore: Configuration and prompt templates
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
