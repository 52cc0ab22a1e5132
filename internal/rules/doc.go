package rules

import (
	"reflect"
	"sort"
	"time"
)

// Doc is a document as the rules see it: wire field names mapped to values.
// Counters are int64, ratings and money float64 or int64, timestamps time.Time.
type Doc map[string]any

// KeySet is a set of document field names.
type KeySet map[string]struct{}

// NewKeySet builds a set from the given field names.
func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Keys returns the set of fields present in the document.
func (d Doc) Keys() KeySet {
	s := make(KeySet, len(d))
	for k := range d {
		s[k] = struct{}{}
	}
	return s
}

// AffectedKeys returns every field that was added, removed or changed
// between before and after.
func AffectedKeys(before, after Doc) KeySet {
	s := make(KeySet)
	for k, av := range after {
		bv, ok := before[k]
		if !ok || !equalValues(bv, av) {
			s[k] = struct{}{}
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			s[k] = struct{}{}
		}
	}
	return s
}

// Has reports whether k is in the set.
func (s KeySet) Has(k string) bool {
	_, ok := s[k]
	return ok
}

// HasAll reports whether every one of keys is in the set.
func (s KeySet) HasAll(keys ...string) bool {
	for _, k := range keys {
		if !s.Has(k) {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one of keys is in the set.
func (s KeySet) HasAny(keys ...string) bool {
	for _, k := range keys {
		if s.Has(k) {
			return true
		}
	}
	return false
}

// HasOnly reports whether the set contains nothing outside keys.
func (s KeySet) HasOnly(keys ...string) bool {
	allowed := NewKeySet(keys...)
	for k := range s {
		if !allowed.Has(k) {
			return false
		}
	}
	return true
}

// Equals reports whether the set is exactly keys.
func (s KeySet) Equals(keys ...string) bool {
	return len(s) == len(NewKeySet(keys...)) && s.HasAll(keys...)
}

// Sorted returns the members in lexical order.
func (s KeySet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// String returns the string field key.
func (d Doc) String(key string) (string, bool) {
	v, ok := d[key].(string)
	return v, ok
}

// Int returns the integer field key. Only Go integer kinds qualify, so a
// fractional value never passes an integer check.
func (d Doc) Int(key string) (int64, bool) {
	switch v := d[key].(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

// Number returns the numeric field key as a float64.
func (d Doc) Number(key string) (float64, bool) {
	if i, ok := d.Int(key); ok {
		return float64(i), true
	}
	switch v := d[key].(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// Bool returns the boolean field key.
func (d Doc) Bool(key string) (bool, bool) {
	v, ok := d[key].(bool)
	return v, ok
}

// Time returns the timestamp field key.
func (d Doc) Time(key string) (time.Time, bool) {
	switch v := d[key].(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v != nil {
			return *v, true
		}
	}
	return time.Time{}, false
}

func equalValues(a, b any) bool {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	an, aok := Doc{"v": a}.Number("v")
	bn, bok := Doc{"v": b}.Number("v")
	if aok && bok {
		return an == bn
	}
	return reflect.DeepEqual(a, b)
}

// stampedAt reports whether the timestamp field key equals the request time.
func stampedAt(d Doc, key string, at time.Time) bool {
	t, ok := d.Time(key)
	return ok && !at.IsZero() && t.Equal(at)
}

// counterDelta returns after[key] - before[key] for integer counters.
func counterDelta(before, after Doc, key string) (int64, bool) {
	b, ok := before.Int(key)
	if !ok {
		return 0, false
	}
	a, ok := after.Int(key)
	if !ok {
		return 0, false
	}
	return a - b, true
}
