package value

// Table is the dual array/hash container from spec §3.2: a dense,
// one-based array part plus an unordered map part, sharing reference
// semantics — any alias of a *Table observes the same mutations, via an
// ordinary Go pointer. (The reference source's Rc<RefCell<Table>> reference-count
// wrapper has no Go equivalent to reach for: the runtime GC already
// collects *Table values, including any cycles through table-in-table
// values, which a pure Rc would leak — spec §9 notes this as accepted
// for the reference source but it comes free here.)
type Table struct {
	array []Value
	hash  map[interface{}]Value
}

// NewTable creates a table with the given capacity hints, used only to
// pre-reserve storage (spec §3.2).
func NewTable(narray, nmap int) *Table {
	return &Table{
		array: make([]Value, 0, narray),
		hash:  make(map[interface{}]Value, nmap),
	}
}

// normalizeKey maps a Value onto a plain, comparable Go value so that
// content-equal keys collide in t.hash regardless of which Value
// representation produced them — in particular so a ShortStr, MidStr and
// LongStr holding the same bytes are the same key, matching spec §3.1's
// bytewise string equality. Integer keys never reach here; see Get/Set.
func normalizeKey(k Value) interface{} {
	switch k.Kind() {
	case KBool:
		return k.AsBool()
	case KFloat:
		return k.AsFloat()
	case KShortStr, KMidStr, KLongStr:
		return k.AsString()
	case KTable:
		return k.AsTable()
	case KNative:
		return k.AsNative()
	case KFunc:
		return k.AsFuncProto()
	default:
		return nil
	}
}

// setSlice mirrors the reference source's set_vec: overwrite in place,
// append at the end, or grow with Nil fill and then append.
func setSlice(s *[]Value, i int, v Value) {
	switch {
	case i < len(*s):
		(*s)[i] = v
	case i == len(*s):
		*s = append(*s, v)
	default:
		for len(*s) < i {
			*s = append(*s, Nil())
		}
		*s = append(*s, v)
	}
}

// placesInArray implements the placement policy of spec §3.2: an integer
// key i lives in the array part if i > 0 and (i < 4 or i < 2*cap(array));
// otherwise the map. This is not Lua's own policy — it is the reference
// source's simplified rule, and spec.md requires it be preserved exactly
// for deterministic outputs.
func (t *Table) placesInArray(i int64) bool {
	return i > 0 && (i < 4 || i < 2*int64(cap(t.array)))
}

// GetInt reads an integer-keyed slot: array first, then the map, Nil on
// absence from both (spec §3.2 invariant 4).
func (t *Table) GetInt(i int64) Value {
	if i >= 1 && i <= int64(len(t.array)) {
		return t.array[i-1]
	}
	if v, ok := t.hash[i]; ok {
		return v
	}
	return Nil()
}

// SetInt writes an integer-keyed slot per the array/map placement policy.
func (t *Table) SetInt(i int64, v Value) {
	if t.placesInArray(i) {
		setSlice(&t.array, int(i-1), v)
	} else {
		t.hash[i] = v
	}
}

// Get reads by a general key. Integer keys route through GetInt; every
// other key (including Float, per the open question in spec §9 — no
// normalization of integral floats to integers) is looked up in the map
// directly by value.
func (t *Table) Get(key Value) Value {
	if key.Kind() == KInt {
		return t.GetInt(key.AsInt())
	}
	if v, ok := t.hash[normalizeKey(key)]; ok {
		return v
	}
	return Nil()
}

// Set writes by a general key. The caller is responsible for rejecting a
// Nil key before calling this (spec §3.2: "Nil keys forbidden").
func (t *Table) Set(key, v Value) {
	if key.Kind() == KInt {
		t.SetInt(key.AsInt(), v)
		return
	}
	t.hash[normalizeKey(key)] = v
}

// Len returns the length of the array part, used by the Len unary
// operator (spec §4.2).
func (t *Table) Len() int64 { return int64(len(t.array)) }

// AppendList implements SetList (spec §4.3): append n values to the
// array part in order.
func (t *Table) AppendList(vals []Value) {
	t.array = append(t.array, vals...)
}
