package finder

import (
	"math"
	"strings"
	"unicode"

	"github.com/melkeydev/value-finder/types"
	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxExactFloat is the largest integer a float64 holds without rounding.
const maxExactFloat = 1 << 53

// latin spells out letters that carry no combining mark, such as the stroke
// in Ł or the ligature Æ.
var latin = strings.NewReplacer(
	"Æ", "AE", "æ", "ae",
	"Œ", "OE", "œ", "oe",
	"Ø", "O", "ø", "o",
	"Ł", "L", "ł", "l",
	"Đ", "D", "đ", "d",
	"Ð", "D", "ð", "d",
	"Þ", "Th", "þ", "th",
	"Ħ", "H", "ħ", "h",
	"Ŧ", "T", "ŧ", "t",
	"Ŀ", "L", "ŀ", "l",
	"ı", "i", "ĸ", "k", "ſ", "s",
	"ß", "ss",
)

// Normalize folds case and reduces Latin letters to their ASCII base, so
// "José", "JOSE" and "Łódź"/"Lodz" compare equal.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(latin.Replace(stripped))
}

// Verify re-checks a returned row and reports the columns whose cell really
// holds value. The database filter alone is not trusted: OR'ed predicates
// and collation rules can both return rows where a column does not match.
func Verify(value Value, row types.Row, exactMatch bool) []string {
	var matched []string
	for i, column := range row.Columns {
		if i >= len(row.Values) {
			break
		}
		if cellMatches(value, row.Values[i], exactMatch) {
			matched = append(matched, column)
		}
	}
	return matched
}

func cellMatches(value Value, cell any, exactMatch bool) bool {
	if cell == nil {
		return false
	}
	if b, ok := cell.([]byte); ok {
		cell = string(b)
	}

	switch value.Kind() {
	case KindText:
		s, err := cast.ToStringE(cell)
		if err != nil {
			return false
		}
		// Fixed width CHAR cells come back right padded.
		want, got := Normalize(value.String()), Normalize(strings.TrimRight(s, " "))
		if exactMatch {
			return got == want
		}
		return strings.Contains(got, want)

	case KindInteger:
		f, err := cast.ToFloat64E(cell)
		if err != nil || f != float64(value.Int64()) {
			return false
		}
		if math.Abs(f) < maxExactFloat {
			return true
		}
		i, err := cast.ToInt64E(cell)
		return err == nil && i == value.Int64()

	case KindReal:
		f, err := cast.ToFloat64E(cell)
		return err == nil && f == value.Float64()

	default:
		return false
	}
}
