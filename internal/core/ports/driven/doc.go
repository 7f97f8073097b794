// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): connectors, stores, embedding and LLM
// services, and the task queue transport.
package driven
