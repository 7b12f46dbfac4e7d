// Package util holds small helpers shared by the storage backends: string
// hashing, random scratch names and a per-key lock used to serialize
// read-modify-write operations.
package util
