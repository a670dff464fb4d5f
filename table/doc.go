// Package table decodes the archive's lookup tables.
//
// Three kinds of table feed the record decoder:
//
//   - [StringTable]: the global string blob (stringtable.bin), indexed by
//     the numeric values of string tokens.
//   - [IDPathTable]: ".lst" blobs mapping numeric ids to archive paths.
//   - [KeyTextTable]: ".str" text files of key>value substitutions.
//
// All tables are immutable once parsed and safe for concurrent use.
package table
