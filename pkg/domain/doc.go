/*
Package domain contains the core models of the article pipeline.

It defines the fixed stage sequence, the tagged stage payloads, the session
record with its ordering rules, the decision vocabulary and the audit trail
types. This package is kept free of I/O and persistence.

# Key Entities

  - StageName: Alpha, Beta, Gamma and Delta, always in that order.
  - StageOutput: one payload variant per stage, validated at the executor boundary.
  - Session: the ordered stage results of one document plus its outcome.
  - DecisionEvent: an immutable, time-ordered audit entry.
  - LogRow: the flattened per-session audit record.
*/
package domain
