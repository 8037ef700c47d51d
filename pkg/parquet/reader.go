package parquet

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Record is one row, keyed by column name
type Record map[string]interface{}

// RowGroup holds the rows of one Parquet row group
type RowGroup struct {
	Rows []Record
}

// Table is the row-oriented form of one Parquet file
type Table struct {
	Name   string // source file name without extension
	Groups []RowGroup
}

// Rows returns all rows of the table across row groups
func (t *Table) Rows() []Record {
	var rows []Record
	for _, g := range t.Groups {
		rows = append(rows, g.Rows...)
	}
	return rows
}

// NumRows returns the total row count across row groups
func (t *Table) NumRows() int {
	n := 0
	for _, g := range t.Groups {
		n += len(g.Rows)
	}
	return n
}

// ReadFile reads a Parquet file into a Table, one RowGroup per source
// row group, with column values coerced to JSON-compatible Go values.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), ErrInvalidFormat)
	}

	leaves, err := leafColumns(pf.Schema())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	name := filepath.Base(path)
	table := &Table{Name: strings.TrimSuffix(name, filepath.Ext(name))}

	for _, rg := range pf.RowGroups() {
		group, err := readRowGroup(rg, leaves)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		table.Groups = append(table.Groups, group)
	}

	return table, nil
}

// ReadDir reads every Parquet part file in dir into one Table per file,
// sorted by file name. Entries whose name starts with "_" or "." are
// metadata markers (_SUCCESS, _spark_metadata, checksums) and are skipped.
func ReadDir(dir string) ([]*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var tables []*Table
	for _, name := range names {
		table, err := ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}

	return tables, nil
}

func readRowGroup(rg parquet.RowGroup, leaves []leafColumn) (RowGroup, error) {
	group := RowGroup{Rows: make([]Record, 0, rg.NumRows())}

	rows := rg.Rows()
	defer rows.Close()

	buf := make([]parquet.Row, 256)
	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			record, convErr := buildRecord(row, leaves)
			if convErr != nil {
				return RowGroup{}, convErr
			}
			group.Rows = append(group.Rows, record)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return RowGroup{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	}

	return group, nil
}

// buildRecord assembles one row into a nested record. Values carry their
// leaf column index; repeated leaves accumulate into arrays.
func buildRecord(row parquet.Row, leaves []leafColumn) (Record, error) {
	record := Record{}

	for _, v := range row {
		col := int(v.Column())
		if col < 0 || col >= len(leaves) {
			return nil, fmt.Errorf("%w: value for unknown column %d", ErrInvalidFormat, col)
		}
		leaf := leaves[col]

		value, err := convertValue(v, leaf)
		if err != nil {
			return nil, err
		}

		// Walk down to the parent container of the leaf field
		target := record
		for _, seg := range leaf.path[:len(leaf.path)-1] {
			child, ok := target[seg].(Record)
			if !ok {
				child = Record{}
				target[seg] = child
			}
			target = child
		}

		field := leaf.path[len(leaf.path)-1]
		if leaf.repeated {
			list, _ := target[field].([]interface{})
			if list == nil {
				list = []interface{}{}
				target[field] = list
			}
			if !v.IsNull() {
				target[field] = append(list, value)
			}
			continue
		}

		target[field] = value
	}

	return record, nil
}
