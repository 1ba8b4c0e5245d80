// Package bufpool provides size-class based byte-slice pooling for the
// short-lived buffers the AOF allocates per record (the value copy on a
// batched Append, the consolidated record framing on a sync Append or a
// batched flush) so the hot write path doesn't churn the GC on every request.
package bufpool
