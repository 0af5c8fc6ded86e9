package collect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// Aggregate holds parsed documents by group key and member id. The
// documents are raw JSON and are never decoded.
type Aggregate map[Key]map[string][]byte

// Add stores doc under e. A later document for the same member replaces
// the earlier one.
func (a Aggregate) Add(e Entry, doc []byte) {
	members, ok := a[e.Key]
	if !ok {
		members = map[string][]byte{}
		a[e.Key] = members
	}
	members[e.Member] = doc
}

// Len returns the number of stored documents.
func (a Aggregate) Len() int {
	var n int
	for _, members := range a {
		n += len(members)
	}
	return n
}

// Keys returns the group keys ordered by family then group.
func (a Aggregate) Keys() []Key {
	keys := make([]Key, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Family != keys[j].Family {
			return keys[i].Family < keys[j].Family
		}
		return keys[i].Group < keys[j].Group
	})
	return keys
}

// Members returns the sorted member ids of k.
func (a Aggregate) Members(k Key) []string {
	ids := make([]string, 0, len(a[k]))
	for id := range a[k] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Encode renders the group k as a single JSON object keyed by member id.
func (a Aggregate) Encode(k Key, indent bool) ([]byte, error) {
	members := a[k]
	out := []byte{'{'}
	for i, id := range a.Members(k) {
		if i > 0 {
			out = append(out, ',')
		}
		var err error
		if out, err = appendKey(out, id); err != nil {
			return nil, fmt.Errorf("member %q: %w", id, err)
		}
		out = append(out, ':')
		out = append(out, members[id]...)
	}
	out = append(out, '}')
	if indent {
		return pretty.Pretty(out), nil
	}
	return out, nil
}

// appendKey appends id as a JSON string, leaving <, > and & unescaped.
func appendKey(dst []byte, id string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(id); err != nil {
		return dst, err
	}
	return append(dst, bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})...), nil
}

// Split is the inverse of Encode: it returns the member documents of a
// merged group file.
func Split(merged []byte) (map[string][]byte, error) {
	if !gjson.ValidBytes(merged) {
		return nil, ErrInvalidJSON
	}
	doc := gjson.ParseBytes(merged)
	if !doc.IsObject() {
		return nil, fmt.Errorf("merged document is %s, not an object: %w", doc.Type, ErrInvalidJSON)
	}
	members := map[string][]byte{}
	doc.ForEach(func(key, value gjson.Result) bool {
		members[key.String()] = pretty.Ugly([]byte(value.Raw))
		return true
	})
	return members, nil
}
