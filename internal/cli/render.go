package cli

import (
	"fmt"
	"io"

	"github.com/roach88/stateview/internal/document"
	"github.com/roach88/stateview/internal/ir"
	"github.com/roach88/stateview/internal/query"
)

// documentsPayload is the JSON payload of commands returning documents.
type documentsPayload struct {
	Count     int                  `json:"count"`
	Documents []*document.Document `json:"documents"`
}

func newDocumentsPayload(docs []*document.SVDocument) documentsPayload {
	out := documentsPayload{Count: len(docs), Documents: make([]*document.Document, 0, len(docs))}
	for _, sv := range docs {
		out.Documents = append(out.Documents, sv.Document())
	}
	return out
}

// writeDocument prints one line per document followed by its data as
// canonical JSON.
func writeDocument(w io.Writer, sv *document.SVDocument) {
	ref, _ := sv.Reference()
	fmt.Fprintf(w, "%s  user=%s  %s  revisions=%d  block=%d  st=%s\n",
		sv.ID(), sv.UserID(), sv.State(), sv.Len(), ref.BlockHeight, ref.StateTransitionHash)

	doc := sv.Document()
	if doc == nil {
		return
	}
	data, err := ir.MarshalCanonical(doc.Data)
	if err != nil {
		fmt.Fprintf(w, "  data: <%v>\n", err)
		return
	}
	fmt.Fprintf(w, "  data: %s\n", data)
}

func writeDocuments(w io.Writer, docs []*document.SVDocument) {
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents found.")
		return
	}
	for _, sv := range docs {
		writeDocument(w, sv)
	}
	fmt.Fprintf(w, "\n%s\n", pluralize(len(docs), "document"))
}

// writeHistory prints every revision of sv, oldest first.
func writeHistory(w io.Writer, sv *document.SVDocument) {
	fmt.Fprintf(w, "%s (%s)  user=%s  %s\n", sv.ID(), sv.Type(), sv.UserID(), sv.State())
	for i, rev := range sv.Revisions() {
		data, err := ir.MarshalCanonical(rev.Document.Data)
		if err != nil {
			data = []byte(fmt.Sprintf("<%v>", err))
		}
		fmt.Fprintf(w, "  #%d %-6s block=%d (%s) st=%s\n      %s\n",
			i+1, rev.Action, rev.Reference.BlockHeight, rev.Reference.BlockHash, rev.Reference.StateTransitionHash, data)
	}
}

// writeValidationErrors lists query validation errors in text form.
func writeValidationErrors(w io.Writer, errs []query.ValidationError) {
	fmt.Fprintln(w, "✗ Invalid query")
	fmt.Fprintln(w)
	for _, e := range errs {
		fmt.Fprintf(w, "  %s %s: %s\n", e.Code, e.Field, e.Message)
	}
}
