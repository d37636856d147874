package kvstore

import (
	"bytes"
)

const sep = "\x00"

var (
	docPrefix    = []byte("d/")
	originPrefix = []byte("o/")

	// syncKey holds the JSON encoded sync state.
	syncKey = []byte("s/state")
)

// typePrefix is the prefix of every document key of docType.
func typePrefix(docType string) []byte {
	return join(docPrefix, docType, sep)
}

func docKey(docType, id string) []byte {
	return join(docPrefix, docType, sep, id)
}

// originTypePrefix is the prefix of origin entries of docType produced by
// stHash.
func originTypePrefix(stHash, docType string) []byte {
	return join(originPrefix, stHash, sep, docType, sep)
}

func originKey(stHash, docType, id string) []byte {
	return join(originPrefix, stHash, sep, docType, sep, id)
}

func join(prefix []byte, parts ...string) []byte {
	var b bytes.Buffer
	b.Write(prefix)
	for _, p := range parts {
		b.WriteString(p)
	}
	return b.Bytes()
}
