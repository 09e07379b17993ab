// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters): chunking, embedding and
// the vector stores behind ingest and retrieval.
package services
