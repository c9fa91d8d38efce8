// Package hash provides the checksums used by the cstable file format.
//
// Pages and column footers are protected with CRC32-Castagnoli (CRC32C), which
// is hardware accelerated on amd64 (SSE4.2) and arm64. CRC32C detects
// accidental corruption only; it is not a cryptographic hash.
package hash
