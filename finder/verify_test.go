package finder

import (
	"testing"

	"github.com/melkeydev/value-finder/types"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "jose", Normalize("José"))
	assert.Equal(t, "sao joao", Normalize("SÃO JOÃO"))
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "lodz", Normalize("Łódź"))
	assert.Equal(t, "oresund", Normalize("Øresund"))
	assert.Equal(t, "aesir", Normalize("Æsir"))
	assert.Equal(t, "thorsdottir", Normalize("Þórsdóttir"))
	assert.Equal(t, "dakovo", Normalize("Đakovo"))
}

func TestVerifyText(t *testing.T) {
	tests := []struct {
		name  string
		value string
		cell  any
		exact bool
		want  bool
	}{
		{"accent and case", "José", "jose smith", false, true},
		{"suffix", "José", "SmithJose", false, true},
		{"exact requires equality", "Rod", "Rodrigo", true, false},
		{"exact normalized", "rodrigo", "RODRÍGO", true, true},
		{"bytes cell", "Rodrigo", []byte("Rodrigo Silva"), false, true},
		{"null cell", "Rodrigo", nil, false, false},
		{"numeric cell", "42", int64(1420), false, true},
		{"absent", "Rodrigo", "Ana", false, false},
		{"stroke letter", "Lodz", "Łódź", false, true},
		{"exact padded char cell", "Rodrigo", "Rodrigo   ", true, true},
		{"exact padded bytes cell", "Rodrigo", []byte("RODRIGO  "), true, true},
		{"leading space kept", "Rodrigo", "  Rodrigo", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := types.Row{Columns: []string{"c"}, Values: []any{tt.cell}}
			got := Verify(Text(tt.value), r, tt.exact)
			if tt.want {
				assert.Equal(t, []string{"c"}, got)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestVerifyNumbers(t *testing.T) {
	r := types.Row{
		Columns: []string{"a", "b", "c", "d", "e"},
		Values:  []any{int64(42), []byte("42.00"), "42", 42.5, nil},
	}

	assert.Equal(t, []string{"a", "b", "c"}, Verify(Integer(42), r, false))
	assert.Equal(t, []string{"d"}, Verify(Real(42.5), r, false))
	assert.Empty(t, Verify(Integer(7), r, true))
}

func TestVerifyLargeIntegers(t *testing.T) {
	const big = int64(1<<53 + 1)
	r := types.Row{Columns: []string{"exact", "neighbor"}, Values: []any{big, big - 1}}

	assert.Equal(t, []string{"exact"}, Verify(Integer(big), r, false))
}

func TestVerifyReportsOnlyMatchingColumns(t *testing.T) {
	r := types.Row{
		Columns: []string{"First", "Last", "Nick"},
		Values:  []any{"Rodrigo", "Silva", "Rodrigosinho"},
	}

	assert.Equal(t, []string{"First", "Nick"}, Verify(Text("rodrigo"), r, false))
	assert.Equal(t, []string{"First"}, Verify(Text("rodrigo"), r, true))
}
