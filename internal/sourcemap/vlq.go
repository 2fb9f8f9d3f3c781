package sourcemap

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

const (
	vlqBaseShift       = 5
	vlqBase            = 1 << vlqBaseShift
	vlqBaseMask        = vlqBase - 1
	vlqContinuationBit = vlqBase
)

// appendVLQ appends the base64 VLQ encoding of value to dst. The sign
// is carried in the least significant bit, per the source map V3
// encoding.
func appendVLQ(dst []byte, value int) []byte {
	vlq := value << 1
	if value < 0 {
		vlq = (-value << 1) | 1
	}
	for {
		digit := vlq & vlqBaseMask
		vlq >>= vlqBaseShift
		if vlq > 0 {
			digit |= vlqContinuationBit
		}
		dst = append(dst, base64Chars[digit])
		if vlq == 0 {
			return dst
		}
	}
}
