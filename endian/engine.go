// Package endian provides byte order utilities for binary encoding and decoding.
//
// This package extends Go's standard encoding/binary package by combining
// ByteOrder and AppendByteOrder interfaces into a unified EndianEngine interface.
// This enables cleaner API design and improved performance for binary data operations.
//
// # Basic Usage
//
// The dtype package selects the engine matching a descriptor's byte order:
//
//	import "github.com/ska-sa/spead-go/endian"
//
//	engine := endian.GetLittleEndianEngine()
//	u := engine.Uint32(raw)
//
// For the SWAP_ENDIAN bug-compat flag, Opposite returns the other engine
// without needing a type switch at every call site:
//
//	engine = endian.Opposite(engine)
//
// # Thread Safety
//
// All functions and methods in this package are safe for concurrent use.
// The returned EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian from
// the standard library, making it fully compatible with existing Go code while
// providing access to both read/write and append operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness uses a fixed integer value to determine the host's byte order.
func CheckEndianness() binary.ByteOrder {
	// 0x0100 is 256. For a little-endian system, the LSB (0x00) is first.
	// For a big-endian system, the MSB (0x01) is first.
	var i uint16 = 0x0100

	// Create a byte slice pointing to the memory address of 'i'.
	// We only need the first byte.
	b := (*[2]byte)(unsafe.Pointer(&i))

	// Check the first byte at the lowest memory address
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

func IsNativeBigEndian() bool {
	return CheckEndianness() == binary.BigEndian
}

func CompareNativeEndian(engine EndianEngine) bool {
	return engine == CheckEndianness()
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// Opposite returns the engine with the opposite byte order to engine.
//
// This backs the SWAP_ENDIAN bug-compat flag: a descriptor's dtype byte
// order is flipped with Opposite rather than re-deriving it from scratch,
// so the set of known engines stays exactly {little, big}.
func Opposite(engine EndianEngine) EndianEngine {
	if engine == binary.LittleEndian {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsLittleEndian reports whether engine is the little-endian engine.
func IsLittleEndian(engine EndianEngine) bool {
	return engine == binary.LittleEndian
}
