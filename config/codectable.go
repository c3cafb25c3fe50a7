package config

import "math/bits"

// CodecKind identifies the compression family of a CodecEntry.
type CodecKind int

const (
	CodecPCM CodecKind = iota
	CodecALAC
	CodecAACLC
	CodecAACELD
	CodecOpus
)

// CodecEntry describes one audio format a SETUP request can select, either
// by its bit position in the client's audioFormat bitmask or by an explicit
// audioFormatIndex.
type CodecEntry struct {
	Kind       CodecKind
	SampleRate int
	BitDepth   int
	Channels   int
}

// Valid reports whether e is a populated table entry rather than one of the
// unused low indices.
func (e CodecEntry) Valid() bool {
	return e.SampleRate != 0
}

// CodecTable is indexed by the trailing-zero bit position of a client's
// audioFormat field (equivalently, an explicit audioFormatIndex). Indices 0
// and 1 are never assigned by any known client and are left zero-valued.
var CodecTable = [33]CodecEntry{
	2:  {CodecPCM, 8000, 16, 1},
	3:  {CodecPCM, 8000, 16, 2},
	4:  {CodecPCM, 16000, 16, 1},
	5:  {CodecPCM, 16000, 16, 2},
	6:  {CodecPCM, 24000, 16, 1},
	7:  {CodecPCM, 24000, 16, 2},
	8:  {CodecPCM, 32000, 16, 1},
	9:  {CodecPCM, 32000, 16, 2},
	10: {CodecPCM, 44100, 16, 1},
	11: {CodecPCM, 44100, 16, 2},
	12: {CodecPCM, 44100, 24, 1},
	13: {CodecPCM, 44100, 24, 2},
	14: {CodecPCM, 48000, 16, 1},
	15: {CodecPCM, 48000, 16, 2},
	16: {CodecPCM, 48000, 24, 1},
	17: {CodecPCM, 48000, 24, 2},

	18: {CodecALAC, 44100, 16, 2},
	19: {CodecALAC, 44100, 24, 2},
	20: {CodecALAC, 48000, 16, 2},
	21: {CodecALAC, 48000, 24, 2},

	22: {CodecAACLC, 44100, 0, 2},
	23: {CodecAACLC, 48000, 0, 2},

	24: {CodecAACELD, 44100, 0, 2},
	25: {CodecAACELD, 48000, 0, 2},
	26: {CodecAACELD, 16000, 0, 1},
	27: {CodecAACELD, 24000, 0, 1},

	28: {CodecOpus, 16000, 0, 1},
	29: {CodecOpus, 24000, 0, 1},
	30: {CodecOpus, 48000, 0, 1},

	31: {CodecAACELD, 44100, 0, 1},
	32: {CodecAACELD, 48000, 0, 1},
}

// TrailingZeros64 returns the bit position of the lowest set bit of v, or 64
// if v is zero. Used to resolve a SETUP request's audioFormat bitmask to a
// CodecTable index when no explicit audioFormatIndex is given.
func TrailingZeros64(v uint64) int {
	return bits.TrailingZeros64(v)
}

// LookupCodec resolves index into CodecTable, reporting false if it is out
// of range or unassigned.
func LookupCodec(index int) (CodecEntry, bool) {
	if index < 0 || index >= len(CodecTable) {
		return CodecEntry{}, false
	}
	e := CodecTable[index]
	return e, e.Valid()
}
