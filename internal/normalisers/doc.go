// Package normalisers provides implementations of the Normaliser interface
// for the supported document formats, plus the registry that dispatches
// between them by MIME type.
//
// Each normaliser fills Document.Sections so chunks can cite a page, slide
// or sheet. The pptx normaliser also returns positioned shapes for the
// timeline extractor.
package normalisers
