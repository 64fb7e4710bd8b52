// Package state defines the persistence-facing contract for per-page selection
// snapshots, plus Mutate, which performs one read-modify-write cycle against a
// Store.
//
// Responsibilities:
//   - Store[T] only loads/saves/deletes a single snapshot for a single Ref.
//   - Mutate[T] owns revision numbering, snapshot ids and ETag checks so Store
//     implementations stay dumb.
//   - The selections package owns change detection; nothing here compares
//     snapshot contents.
//
// Data flow:
//
//	PageSelectionStore -> state.Mutate -> Store.Load / Store.Save
//
// Deterministic keys:
//
//	Ref.Identifier() renders "session/<id>/page/<page>". Adapters backed by a
//	shared key space can use it directly.
package state
