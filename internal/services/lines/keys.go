package linesvc

import "strings"

func lineMetaKey(ns, line string) []byte {
	// ns/{ns}/line/{line}/meta
	b := make([]byte, 0, len(ns)+len(line)+14)
	b = append(b, 'n', 's', '/')
	b = append(b, ns...)
	b = append(b, '/', 'l', 'i', 'n', 'e', '/')
	b = append(b, line...)
	b = append(b, '/', 'm', 'e', 't', 'a')
	return b
}

// namespaceLinesPrefix bounds a scan to one namespace's line keyspace.
func namespaceLinesPrefix(ns string) []byte {
	// ns/{ns}/line/
	b := make([]byte, 0, len(ns)+9)
	b = append(b, 'n', 's', '/')
	b = append(b, ns...)
	b = append(b, '/', 'l', 'i', 'n', 'e', '/')
	return b
}

var allNamespacesPrefix = []byte("ns/")

func prefixUpperBound(prefix []byte) []byte {
	return append(append([]byte(nil), prefix...), 0xFF)
}

// parseLineMetaKey extracts namespace and line from a meta key. Returns
// ok=false for any other key in the shared keyspace (parked items etc).
func parseLineMetaKey(k []byte) (ns, line string, ok bool) {
	s := string(k)
	if !strings.HasPrefix(s, "ns/") || !strings.HasSuffix(s, "/meta") {
		return "", "", false
	}
	s = strings.TrimPrefix(s, "ns/")
	s = strings.TrimSuffix(s, "/meta")
	i := strings.Index(s, "/line/")
	if i < 0 {
		return "", "", false
	}
	ns, line = s[:i], s[i+len("/line/"):]
	if ns == "" || line == "" || strings.Contains(line, "/") {
		return "", "", false
	}
	return ns, line, true
}
