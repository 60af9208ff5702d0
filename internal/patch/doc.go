// Package patch defines mutation requests and the field classifier.
//
// A Request names one record by its structural key and carries up to four
// mutation buckets: assign, remove, increment, and append. Classify
// extracts the per-bucket field names without validating anything; policy
// enforcement lives in package policy.
package patch
