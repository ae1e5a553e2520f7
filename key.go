package mediatype

// keyBytes constrains the two spellings a media-type label arrives in: the
// owned string stored at registration and the borrowed byte view probed on
// the dispatch path. Helpers generic over keyBytes treat both as the same
// byte sequence, so neither path converts.
type keyBytes interface {
	~string | ~[]byte
}

// chunk is the number of label bytes mixed per step on the long-key path.
const chunk = 8

// hashKey folds a media-type label into a 64-bit table hash. Values are
// length-seeded so a short label and its zero-padded form differ, and long
// vendor-tree labels are mixed a word at a time rather than per byte. Equal
// byte content hashes equal across both label spellings; the exact bit
// pattern is not part of the public contract.
func hashKey[K keyBytes](k K) uint64 {
	n := len(k)
	switch {
	case n < 4:
		h := uint64(n)
		for i := 0; i < n; i++ {
			h = h<<8 + uint64(k[i])
		}
		return h
	case n == 4:
		return uint64(k[0]) | uint64(k[1])<<8 | uint64(k[2])<<16 | uint64(k[3])<<24
	default:
		var lanes uint64
		i := 0
		for ; i+chunk <= n; i += chunk {
			lanes ^= uint64(k[i]) | uint64(k[i+1])<<8 | uint64(k[i+2])<<16 |
				uint64(k[i+3])<<24 | uint64(k[i+4])<<32 | uint64(k[i+5])<<40 |
				uint64(k[i+6])<<48 | uint64(k[i+7])<<56
		}
		h := uint64(n)
		for ; i < n; i++ {
			h = h<<8 + uint64(k[i])
		}
		return h ^ lanes
	}
}

// keyEqual reports whether a borrowed label view matches an owned key
// without converting either side.
func keyEqual[K keyBytes](k K, owned string) bool {
	if len(k) != len(owned) {
		return false
	}
	for i := 0; i < len(owned); i++ {
		if k[i] != owned[i] {
			return false
		}
	}
	return true
}

// indexByte returns the offset of the first c in k, or -1.
func indexByte[K keyBytes](k K, c byte) int {
	for i := 0; i < len(k); i++ {
		if k[i] == c {
			return i
		}
	}
	return -1
}

// lastIndexByteBefore returns the offset of the last c in k[:end], or -1.
// The bound is an argument because keyBytes supports indexing but not
// slicing: string and []byte share an element type, not an underlying type.
func lastIndexByteBefore[K keyBytes](k K, c byte, end int) int {
	for i := end - 1; i >= 0; i-- {
		if k[i] == c {
			return i
		}
	}
	return -1
}

// appendRange copies k[lo:hi] onto dst. It is the generic stand-in for
// append(dst, k[lo:hi]...), which keyBytes does not support either.
func appendRange[K keyBytes](dst []byte, k K, lo, hi int) []byte {
	for i := lo; i < hi; i++ {
		dst = append(dst, k[i])
	}
	return dst
}
