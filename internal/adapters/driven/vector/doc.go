// Package vector holds the similarity arithmetic shared by the vector store
// adapters. The engines themselves live in the chromem and hnsw subpackages.
package vector
