// Package store is the content-store client: one GitHub repository branch
// accessed through the contents and git trees APIs.
//
// Upsert is read-modify-write: an existence check at the branch supplies the
// prior blob sha, then the file is created or overwritten with it. Paths keep
// their "/" separators while each segment is percent-encoded.
//
// Transient failures (429, secondary rate limits, 5xx) are retried with
// exponential backoff. Writes are only retried when GitHub reported a rate
// limit, because a 5xx or dropped connection may hide a completed commit.
package store
