package fileio

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"tabular/internal/table"
)

// ReadParquet loads a parquet file into a typed table. Unlike the text
// readers, parquet round-trips semantic types: integers, floats, and
// dates come back typed. Categorical columns are stored as strings and
// come back as Text.
func ReadParquet(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fileio: open parquet %s: %w", path, err)
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f, file.WithReadProps(&parquet.ReaderProperties{}))
	if err != nil {
		return nil, fmt.Errorf("fileio: parquet reader %s: %w", path, err)
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	arrowReader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("fileio: arrow reader %s: %w", path, err)
	}

	at, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("fileio: read parquet %s: %w", path, err)
	}
	defer at.Release()

	cols := make([]table.Column, at.NumCols())
	for i := 0; i < int(at.NumCols()); i++ {
		col, err := fromArrowColumn(at.Schema().Field(i), at.Column(i).Data().Chunks(), int(at.NumRows()))
		if err != nil {
			return nil, fmt.Errorf("fileio: parquet %s: %w", path, err)
		}
		cols[i] = col
	}
	return table.New(cols)
}

func fromArrowColumn(field arrow.Field, chunks []arrow.Array, rows int) (table.Column, error) {
	col := table.Column{Name: field.Name, Values: make([]any, 0, rows)}

	switch field.Type.ID() {
	case arrow.STRING:
		col.Type = table.Text
	case arrow.INT8:
		col.Type, col.Bits = table.Integer, 8
	case arrow.INT16:
		col.Type, col.Bits = table.Integer, 16
	case arrow.INT32:
		col.Type, col.Bits = table.Integer, 32
	case arrow.INT64:
		col.Type, col.Bits = table.Integer, 64
	case arrow.FLOAT32:
		col.Type, col.Bits = table.Float, 32
	case arrow.FLOAT64:
		col.Type, col.Bits = table.Float, 64
	case arrow.DATE32:
		col.Type = table.Date
	default:
		// Anything else is carried as text.
		col.Type = table.Text
	}

	for _, chunk := range chunks {
		for pos := 0; pos < chunk.Len(); pos++ {
			if chunk.IsNull(pos) {
				col.Values = append(col.Values, nil)
				continue
			}
			col.Values = append(col.Values, arrowValue(chunk, pos))
		}
	}
	return col, nil
}

func arrowValue(a arrow.Array, pos int) any {
	switch a.DataType().ID() {
	case arrow.STRING:
		return a.(*array.String).Value(pos)
	case arrow.INT8:
		return int64(a.(*array.Int8).Value(pos))
	case arrow.INT16:
		return int64(a.(*array.Int16).Value(pos))
	case arrow.INT32:
		return int64(a.(*array.Int32).Value(pos))
	case arrow.INT64:
		return a.(*array.Int64).Value(pos)
	case arrow.FLOAT32:
		return float64(a.(*array.Float32).Value(pos))
	case arrow.FLOAT64:
		return a.(*array.Float64).Value(pos)
	case arrow.DATE32:
		return a.(*array.Date32).Value(pos).ToTime()
	default:
		return a.ValueStr(pos)
	}
}

// WriteParquet writes a table as snappy-compressed parquet, mapping
// semantic types to the narrowest arrow type the width metadata allows.
func WriteParquet(t *table.Table, path string) error {
	schema, arrs, err := toArrow(t)
	if err != nil {
		return fmt.Errorf("fileio: parquet %s: %w", path, err)
	}
	defer func() {
		for _, a := range arrs {
			a.Release()
		}
	}()

	rec := array.NewRecord(schema, arrs, int64(t.NumRows()))
	defer rec.Release()
	at := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer at.Release()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("fileio: create parquet %s: %w", path, err)
	}
	defer f.Close()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(schema, f, props, arrowProps)
	if err != nil {
		return fmt.Errorf("fileio: parquet writer %s: %w", path, err)
	}
	if err := writer.WriteTable(at, at.NumRows()); err != nil {
		writer.Close()
		return fmt.Errorf("fileio: write parquet %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("fileio: close parquet %s: %w", path, err)
	}
	return nil
}

func toArrow(t *table.Table) (*arrow.Schema, []arrow.Array, error) {
	mem := memory.NewGoAllocator()

	fields := make([]arrow.Field, len(t.Cols))
	arrs := make([]arrow.Array, len(t.Cols))

	for i, col := range t.Cols {
		dtype := arrowType(col)
		fields[i] = arrow.Field{Name: col.Name, Type: dtype, Nullable: true}

		arr, err := buildArray(mem, dtype, col)
		if err != nil {
			for _, a := range arrs[:i] {
				a.Release()
			}
			return nil, nil, err
		}
		arrs[i] = arr
	}

	return arrow.NewSchema(fields, nil), arrs, nil
}

func arrowType(col table.Column) arrow.DataType {
	switch col.Type {
	case table.Integer:
		switch col.Bits {
		case 8:
			return arrow.PrimitiveTypes.Int8
		case 16:
			return arrow.PrimitiveTypes.Int16
		case 32:
			return arrow.PrimitiveTypes.Int32
		default:
			return arrow.PrimitiveTypes.Int64
		}
	case table.Float:
		if col.Bits == 32 {
			return arrow.PrimitiveTypes.Float32
		}
		return arrow.PrimitiveTypes.Float64
	case table.Date:
		return arrow.FixedWidthTypes.Date32
	default:
		// Text and Categorical are stored as strings.
		return arrow.BinaryTypes.String
	}
}

func buildArray(mem memory.Allocator, dtype arrow.DataType, col table.Column) (arrow.Array, error) {
	b := array.NewBuilder(mem, dtype)
	defer b.Release()

	for _, v := range col.Values {
		if v == nil {
			b.AppendNull()
			continue
		}
		switch dtype.ID() {
		case arrow.STRING:
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("column %s: value %v is not a string", col.Name, v)
			}
			b.(*array.StringBuilder).Append(s)
		case arrow.INT8:
			n, ok := v.(int64)
			if !ok {
				return nil, fmt.Errorf("column %s: value %v is not an integer", col.Name, v)
			}
			b.(*array.Int8Builder).Append(int8(n))
		case arrow.INT16:
			n, ok := v.(int64)
			if !ok {
				return nil, fmt.Errorf("column %s: value %v is not an integer", col.Name, v)
			}
			b.(*array.Int16Builder).Append(int16(n))
		case arrow.INT32:
			n, ok := v.(int64)
			if !ok {
				return nil, fmt.Errorf("column %s: value %v is not an integer", col.Name, v)
			}
			b.(*array.Int32Builder).Append(int32(n))
		case arrow.INT64:
			n, ok := v.(int64)
			if !ok {
				return nil, fmt.Errorf("column %s: value %v is not an integer", col.Name, v)
			}
			b.(*array.Int64Builder).Append(n)
		case arrow.FLOAT32:
			f, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("column %s: value %v is not a float", col.Name, v)
			}
			b.(*array.Float32Builder).Append(float32(f))
		case arrow.FLOAT64:
			f, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("column %s: value %v is not a float", col.Name, v)
			}
			b.(*array.Float64Builder).Append(f)
		case arrow.DATE32:
			d, ok := v.(time.Time)
			if !ok {
				return nil, fmt.Errorf("column %s: value %v is not a date", col.Name, v)
			}
			b.(*array.Date32Builder).Append(arrow.Date32FromTime(d))
		default:
			return nil, fmt.Errorf("column %s: unsupported arrow type %s", col.Name, dtype)
		}
	}

	return b.NewArray(), nil
}
