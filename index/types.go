package index

// AttrType tags which key variant an index was built over. Fixed at
// construction and stored in the metadata page; never changes for the life
// of the file.
type AttrType uint8

const (
	AttrInt32 AttrType = iota
	AttrFloat64
	AttrString10
)

func (t AttrType) String() string {
	switch t {
	case AttrInt32:
		return "INTEGER"
	case AttrFloat64:
		return "DOUBLE"
	case AttrString10:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// StringKey is the fixed-width STRING key variant: 10 bytes, NUL-padded.
type StringKey [10]byte

func NewStringKey(s string) StringKey {
	var k StringKey
	copy(k[:], s)
	return k
}

func (k StringKey) String() string {
	n := len(k)
	for n > 0 && k[n-1] == 0 {
		n--
	}
	return string(k[:n])
}

// Operator is the scan-bound comparison direction. EQ is part of the enum
// per the on-disk contract but unused by startScan, which only accepts the
// four inequality operators.
type Operator uint8

const (
	LT Operator = iota
	LTE
	GT
	GTE
	EQ
)

// Key enumerates the three supported key variants. A tree is parameterised
// by exactly one of these at construction; there is no mixing.
type Key interface {
	int32 | float64 | StringKey
}

// keyLess is the one place per-variant comparison semantics live: integers
// and doubles compare numerically, STRING keys compare lexicographically
// over their raw bytes. Everything above this point is the same generic
// code for all three variants.
func keyLess[K Key](a, b K) bool {
	switch x := any(a).(type) {
	case int32:
		return x < any(b).(int32)
	case float64:
		return x < any(b).(float64)
	case StringKey:
		y := any(b).(StringKey)
		for i := range x {
			if x[i] != y[i] {
				return x[i] < y[i]
			}
		}
		return false
	default:
		panic("index: unreachable key variant")
	}
}

func keyEqual[K Key](a, b K) bool {
	return !keyLess(a, b) && !keyLess(b, a)
}

// satisfiesLow reports whether key passes lowOp against lowVal.
func satisfiesLow[K Key](key, lowVal K, lowOp Operator) bool {
	if lowOp == GTE {
		return !keyLess(key, lowVal)
	}
	return keyLess(lowVal, key)
}

// satisfiesHigh reports whether key passes highOp against highVal.
func satisfiesHigh[K Key](key, highVal K, highOp Operator) bool {
	if highOp == LTE {
		return !keyLess(highVal, key)
	}
	return keyLess(key, highVal)
}
