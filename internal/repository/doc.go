// Package repository composes validation, translation and a storage backend
// into the document repository for one document type.
//
// A Repository stores SVDocuments, answers queries over their current
// revisions and supports reorg rollback by state-transition hash:
//
//	repo := repository.New(backend, "niceDocument",
//	    repository.WithLogger(logger),
//	    repository.WithMetrics(m),
//	)
//	docs, err := repo.Fetch(ctx, raw)
//
// Soft-deleted documents are absent from Find and Fetch but stay
// retrievable through History and FindAllByOrigin.
package repository
