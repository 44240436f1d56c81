/*
Package session manages access to stored session records.

The Manager serializes operations per session ID with reference-counted local
locks and, when a DistributedLocker is configured, a lock shared across
replicas. It also mints session identifiers.
*/
package session
