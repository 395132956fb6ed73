// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package types

import "encoding/binary"

const (
	// FillerWord is the padding value written by PadCommandBuffer when
	// rounding a buffer up to alignment. Its canonical representation is
	// big-endian; use [FillerWordFor] to get the value in a target
	// device's byte order.
	FillerWord uint32 = 0xBEEF2929

	// MinLeaseWords is the minimum number of words any pool lease is
	// rounded up to.
	MinLeaseWords uint32 = 256

	// MaxLeaseWords caps a single pool lease regardless of how much
	// contiguous free space is available.
	MaxLeaseWords uint32 = 0x20000

	// AlignWords is the word alignment display-list and pool-backed
	// buffers are padded to before being queued.
	AlignWords uint32 = 4
)

// FillerWordFor returns FillerWord's bytes reinterpreted in order's byte
// order. The constant is defined canonically big-endian; the GPU driver
// expects the filler word's bytes in its own native order, so on a
// little-endian target this performs the host-to-device byte swap spec'd
// for padding words.
func FillerWordFor(order binary.ByteOrder) uint32 {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], FillerWord)
	return order.Uint32(b[:])
}

// AlignUpWords rounds words up to the next multiple of AlignWords.
func AlignUpWords(words uint32) uint32 {
	rem := words % AlignWords
	if rem == 0 {
		return words
	}
	return words + (AlignWords - rem)
}
