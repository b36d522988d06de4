//go:build amd64 || arm64 || 386 || arm || riscv64 || loong64 || mipsle || mips64le || ppc64le || wasm

// This package reinterprets shared-memory byte slices as atomic words via
// unsafe.Pointer (see ring.go, seqlock.go); that cast is only well-defined on
// little-endian hosts. The build-tag list above names the little-endian
// architectures, but it applies only to this file: the package's other files
// carry no build tags, so a big-endian build still compiles and nothing
// checks the host's byte order at compile time or at run time.

package shm
