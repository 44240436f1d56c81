/*
Package audit records the decision trail of a session and projects it into
the flattened LogRow written by row sinks.

The Recorder is the only writer of DecisionEvents: it stamps them, appends
them to the session and forwards them to an optional live EventSink. Export
and ParseDecisions are inverse views of the same trail, so a LogRow read back
from a CSV file still yields per-stage attempt counts and finalize reasons.
*/
package audit
