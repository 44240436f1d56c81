/*
Package ports defines the driven ports (interfaces) of the article pipeline.

These interfaces decouple the orchestration core from its collaborators, so
the same state machine runs against a real model or a mock, writes its audit
trail to CSV, sqlite or redis, and keeps sessions wherever the host wants.

# Key Interfaces

  - Backend: turns a stage prompt into raw model text, or fails.
  - RowSink: receives one flattened LogRow per session.
  - DetailSink: receives the full-detail record of a session.
  - EventSink: receives each DecisionEvent as it is recorded.
  - SessionStore: persists and lists session detail records.
  - DistributedLocker: provides distributed locking across replicas.
*/
package ports
