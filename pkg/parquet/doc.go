// Package parquet reads Parquet files into a row-oriented in-memory
// representation and serializes them to JSON.
//
// The package provides:
//   - ReadFile/ReadDir for loading Parquet data as tables of generic records
//   - Value coercion from Parquet column types to JSON-compatible Go values
//   - WriteJSON for emitting one JSON array file per source row group
package parquet
