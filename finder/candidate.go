package finder

import (
	"github.com/melkeydev/value-finder/types"
)

// SelectCandidates returns the columns of table that can structurally hold
// value. Columns with missing length or precision metadata are left out.
func SelectCandidates(columns []types.ColumnMeta, table string, value Value) []types.ColumnMeta {
	size := value.Size()

	var candidates []types.ColumnMeta
	for _, c := range columns {
		if c.Table != table {
			continue
		}
		if canHold(c, value.Kind(), size) {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

func canHold(c types.ColumnMeta, kind Kind, size int) bool {
	switch kind {
	case KindInteger:
		if c.DataType != types.DataTypeInteger && c.DataType != types.DataTypeNumeric {
			return false
		}
		return c.NumericPrecision != nil && *c.NumericPrecision >= size
	case KindReal:
		if c.DataType != types.DataTypeNumeric {
			return false
		}
		return c.NumericPrecision != nil && *c.NumericPrecision >= size
	case KindText:
		if c.DataType != types.DataTypeChar || c.MaxCharLength == nil {
			return false
		}
		return *c.MaxCharLength == types.UnboundedLength || *c.MaxCharLength >= size
	default:
		return false
	}
}
