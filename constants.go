package mpack

// Wire tags.  Ranges are inclusive; fixed families carry their payload
// (value, length or count) in the low bits of the tag itself.
const (
	tagPosFixIntMin byte = 0x00
	tagPosFixIntMax byte = 0x7F
	tagFixMapMin    byte = 0x80
	tagFixMapMax    byte = 0x8F
	tagFixArrayMin  byte = 0x90
	tagFixArrayMax  byte = 0x9F
	tagFixStrMin    byte = 0xA0
	tagFixStrMax    byte = 0xBF
	tagNil          byte = 0xC0
	tagFalse        byte = 0xC2
	tagTrue         byte = 0xC3
	tagBin8         byte = 0xC4
	tagBin16        byte = 0xC5
	tagBin32        byte = 0xC6
	tagFloat32      byte = 0xCA
	tagFloat64      byte = 0xCB
	tagUint8        byte = 0xCC
	tagUint16       byte = 0xCD
	tagUint32       byte = 0xCE
	tagUint64       byte = 0xCF
	tagInt8         byte = 0xD0
	tagInt16        byte = 0xD1
	tagInt32        byte = 0xD2
	tagInt64        byte = 0xD3
	tagStr8         byte = 0xD9
	tagStr16        byte = 0xDA
	tagStr32        byte = 0xDB
	tagArray16      byte = 0xDC
	tagArray32      byte = 0xDD
	tagMap16        byte = 0xDE
	tagMap32        byte = 0xDF
	tagNegFixIntMin byte = 0xE0
)

// Tier limits for the inline-length families.
const (
	maxFixStrLen   = 31
	maxFixCount    = 15
	maxFixPosInt   = 0x7F
	minFixNegInt   = -32
	maxUint8Len    = 0xFF
	maxUint16Len   = 0xFFFF
	maxUint32Len   = 0xFFFFFFFF
	fixCountMask   = 0x0F
	fixStrLenMask  = 0x1F
	maxPrealloc    = 4096
	chunkedReadMin = 64 * 1024
)

// isReservedTag reports whether tag belongs to a family this codec does not
// implement (0xC1 and the ext/fixext tags).
func isReservedTag(tag byte) bool {
	switch {
	case tag == 0xC1:
		return true
	case tag >= 0xC7 && tag <= 0xC9:
		return true
	case tag >= 0xD4 && tag <= 0xD8:
		return true
	}
	return false
}
