// Package jsonpath resolves values out of loosely-structured upstream JSON.
//
// The hydrology provider places the same logical field under different keys
// depending on the locale/version of the deployment ("popup" vs "finestra
// emergent" containers, "value" vs "valor" leaves), so callers hand Resolve
// an ordered list of candidate paths and take the first one that is present.
package jsonpath

// Path is a sequence of object keys walked from the document root.
type Path []string

// Resolve walks each candidate path in order and returns the first leaf value
// whose every intermediate step is present and non-null. It returns nil when
// no candidate hits or the document itself is nil. Absence is data, not an
// error: malformed or missing structure never panics.
func Resolve(doc any, paths []Path) any {
	if doc == nil {
		return nil
	}
	for _, p := range paths {
		if v, ok := get(doc, p); ok {
			return v
		}
	}
	return nil
}

// First is a convenience for a single candidate path.
func First(doc any, path Path) any {
	return Resolve(doc, []Path{path})
}

// get walks one path. A JSON null at any step, including the leaf, counts as
// a miss.
func get(doc any, path Path) (any, bool) {
	cur := doc
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		next, present := obj[key]
		if !present || next == nil {
			return nil, false
		}
		cur = next
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}
