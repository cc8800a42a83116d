// Package history keeps a record of finished conversions in SQLite.
//
// A Store is a completion sink: the session controller calls OnCompleted
// once per successful attempt. Reconverting to the same file replaces the
// earlier row.
//
//	store, err := history.Open(filepath.Join(dir, "history.db"), logger)
//	entries, err := store.List(ctx, 20)
package history
