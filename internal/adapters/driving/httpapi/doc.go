// Package httpapi serves the query orchestrator and timeline store over a
// JSON HTTP API built on gin.
//
// Routes:
//
//	GET  /health
//	GET  /api/v1/status
//	POST /api/v1/query
//	GET  /api/v1/milestones
//	GET  /api/v1/spans
//	GET  /api/v1/statuses
//	POST /api/v1/reindex
package httpapi
