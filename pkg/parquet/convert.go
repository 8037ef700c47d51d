package parquet

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"
)

// leafColumn caches per-column conversion metadata, indexed by the leaf
// column index values carry at read time.
type leafColumn struct {
	path     []string // record field path, list wrapper groups stripped
	repeated bool
	logical  *format.LogicalType
}

func leafColumns(schema *parquet.Schema) ([]leafColumn, error) {
	paths := schema.Columns()
	leaves := make([]leafColumn, len(paths))

	for _, path := range paths {
		leaf, ok := schema.Lookup(path...)
		if !ok {
			return nil, fmt.Errorf("%w: no leaf at %s", ErrInvalidFormat, strings.Join(path, "."))
		}
		if leaf.MaxRepetitionLevel > 1 {
			return nil, fmt.Errorf("%w: nested repeated column %s", ErrUnsupportedType, strings.Join(path, "."))
		}

		// The three-level list encoding wraps elements in "list"/"element"
		// groups; collapse those so the record field keeps the column name.
		cleaned := make([]string, 0, len(path))
		for _, seg := range path {
			if seg == "list" || seg == "element" {
				continue
			}
			cleaned = append(cleaned, seg)
		}
		if len(cleaned) == 0 {
			cleaned = path
		}

		leaves[leaf.ColumnIndex] = leafColumn{
			path:     cleaned,
			repeated: leaf.MaxRepetitionLevel > 0,
			logical:  leaf.Node.Type().LogicalType(),
		}
	}

	return leaves, nil
}

// convertValue coerces a single Parquet value to its JSON representation.
//
// Coercion rules: timestamps (millis/micros/nanos and legacy INT96) and
// dates become ISO-8601 strings, UUIDs become their canonical string form,
// strings/enums stay strings, embedded JSON passes through raw, any other
// binary becomes base64, int-backed decimals become floats and the
// remaining scalars map to their natural JSON type. NaN and infinities
// have no JSON encoding and fail instead of being dropped.
func convertValue(v parquet.Value, leaf leafColumn) (interface{}, error) {
	if v.IsNull() {
		return nil, nil
	}

	lt := leaf.logical

	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean(), nil

	case parquet.Int32:
		if lt != nil && lt.Date != nil {
			return time.Unix(int64(v.Int32())*86400, 0).UTC().Format("2006-01-02"), nil
		}
		if lt != nil && lt.Time != nil {
			return timeOfDay(int64(v.Int32()), lt.Time), nil
		}
		if lt != nil && lt.Decimal != nil {
			return float64(v.Int32()) / math.Pow10(int(lt.Decimal.Scale)), nil
		}
		return v.Int32(), nil

	case parquet.Int64:
		if lt != nil && lt.Timestamp != nil {
			return timestampString(v.Int64(), lt.Timestamp.Unit), nil
		}
		if lt != nil && lt.Time != nil {
			return timeOfDay(v.Int64(), lt.Time), nil
		}
		if lt != nil && lt.Decimal != nil {
			return float64(v.Int64()) / math.Pow10(int(lt.Decimal.Scale)), nil
		}
		return v.Int64(), nil

	case parquet.Int96:
		// Legacy Spark timestamps: nanoseconds of day plus Julian day
		return int96Timestamp(v), nil

	case parquet.Float:
		return checkedFloat(float64(v.Float()), leaf)

	case parquet.Double:
		return checkedFloat(v.Double(), leaf)

	case parquet.ByteArray, parquet.FixedLenByteArray:
		return convertBinary(v, leaf)
	}

	return nil, fmt.Errorf("%w: %s (kind %d)", ErrUnsupportedType, strings.Join(leaf.path, "."), v.Kind())
}

func convertBinary(v parquet.Value, leaf leafColumn) (interface{}, error) {
	lt := leaf.logical
	data := v.ByteArray()

	switch {
	case lt != nil && (lt.UTF8 != nil || lt.Enum != nil):
		return string(data), nil
	case lt != nil && lt.Json != nil:
		return json.RawMessage(append([]byte(nil), data...)), nil
	case lt != nil && lt.UUID != nil:
		id, err := uuid.FromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedType, strings.Join(leaf.path, "."), err)
		}
		return id.String(), nil
	case lt != nil && lt.Decimal != nil:
		return nil, fmt.Errorf("%w: %s (binary decimal)", ErrUnsupportedType, strings.Join(leaf.path, "."))
	default:
		// Raw binary has no native JSON form; base64 keeps it lossless
		return base64.StdEncoding.EncodeToString(data), nil
	}
}

func checkedFloat(f float64, leaf leafColumn) (interface{}, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %s (non-finite float)", ErrUnsupportedType, strings.Join(leaf.path, "."))
	}
	return f, nil
}

func timestampString(n int64, unit format.TimeUnit) string {
	var t time.Time
	switch {
	case unit.Millis != nil:
		t = time.UnixMilli(n)
	case unit.Nanos != nil:
		t = time.Unix(0, n)
	default:
		t = time.UnixMicro(n)
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func timeOfDay(n int64, lt *format.TimeType) string {
	var d time.Duration
	switch {
	case lt.Unit.Millis != nil:
		d = time.Duration(n) * time.Millisecond
	case lt.Unit.Nanos != nil:
		d = time.Duration(n)
	default:
		d = time.Duration(n) * time.Microsecond
	}
	return time.Time{}.Add(d).Format("15:04:05.999999999")
}

// int96Timestamp decodes the deprecated INT96 layout: the low 8 bytes are
// nanoseconds within the day, the high 4 bytes the Julian day number.
func int96Timestamp(v parquet.Value) string {
	i96 := v.Int96()
	nanos := int64(i96[1])<<32 | int64(i96[0])
	julianDay := int64(int32(i96[2]))

	// Julian day 2440588 is 1970-01-01
	unixSeconds := (julianDay - 2440588) * 86400
	return time.Unix(unixSeconds, nanos).UTC().Format(time.RFC3339Nano)
}
