package testutil

import (
	"fmt"

	"github.com/roach88/stateview/internal/document"
	"github.com/roach88/stateview/internal/ir"
)

// NiceDocumentType is the document type used by the shared fixtures.
const NiceDocumentType = "niceDocument"

// Ref returns a reference at height produced by state transition stHash.
// Block and packet hashes are derived from the inputs.
func Ref(height int64, stHash string) document.Reference {
	return document.MustReference(
		fmt.Sprintf("block-%d", height),
		height,
		stHash,
		"packet-"+stHash,
	)
}

// NiceData returns the data of fixture document i: order i, arrayWithScalar
// [i..2i], i+1 copies of {item: i+1, flag: true} and a name pair. Only the
// first document is named "Cutie" and only the third is "Sweety".
func NiceData(i int) ir.IRObject {
	names := []ir.IRObject{
		{"name": ir.IRString("Cutie"), "lastName": ir.IRString("Cuddly")},
		{"name": ir.IRString("Dolly"), "lastName": ir.IRString("Dash")},
		{"name": ir.IRString("Fluffy"), "lastName": ir.IRString("Sweety")},
	}

	data := ir.IRObject{}
	if i < len(names) {
		data = names[i].Clone()
	}
	data["order"] = ir.IRInt(i)

	scalars := ir.IRArray{}
	objects := ir.IRArray{}
	for j := 0; j <= i; j++ {
		scalars = append(scalars, ir.IRInt(i+j))
		objects = append(objects, ir.IRObject{"item": ir.IRInt(i + 1), "flag": ir.IRBool(true)})
	}
	data["arrayWithScalar"] = scalars
	data["arrayWithObjects"] = objects
	return data
}

// NiceDocument returns fixture document i (id doc-<i+1>, owner user-<i+1>)
// created by ref.
func NiceDocument(i int, ref document.Reference) *document.SVDocument {
	doc := document.NewDocument(NiceDocumentType, fmt.Sprintf("doc-%d", i+1), fmt.Sprintf("user-%d", i+1))
	doc.Data = NiceData(i)
	sv, err := document.New(doc, ref)
	if err != nil {
		panic(err)
	}
	return sv
}

// NiceDocuments returns n fixture documents, each created by its own state
// transition st-<i+1> at height i+1.
func NiceDocuments(n int) []*document.SVDocument {
	out := make([]*document.SVDocument, n)
	for i := range out {
		out[i] = NiceDocument(i, Ref(int64(i+1), fmt.Sprintf("st-%d", i+1)))
	}
	return out
}
