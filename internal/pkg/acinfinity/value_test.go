package acinfinity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue(t *testing.T) {
	tests := map[string]struct {
		value     Value
		wantInt   int
		wantFloat float64
		wantStr   string
	}{
		"missing": {
			value:     Value{},
			wantInt:   -1,
			wantFloat: -1,
			wantStr:   "def",
		},
		"nil is missing": {
			value:     found(nil),
			wantInt:   -1,
			wantFloat: -1,
			wantStr:   "def",
		},
		"json integer": {
			value:     found(json.Number("2417")),
			wantInt:   2417,
			wantFloat: 2417,
			wantStr:   "2417",
		},
		"json float": {
			value:     found(json.Number("1.5")),
			wantInt:   1,
			wantFloat: 1.5,
			wantStr:   "1.5",
		},
		"numeric string": {
			value:     found("20"),
			wantInt:   20,
			wantFloat: 20,
			wantStr:   "20",
		},
		"leading zero string": {
			value:     found("010"),
			wantInt:   10,
			wantFloat: 10,
			wantStr:   "010",
		},
		"leading zero beyond octal": {
			value:     found("08"),
			wantInt:   8,
			wantFloat: 8,
			wantStr:   "08",
		},
		"non numeric string": {
			value:     found("Grow Tent"),
			wantInt:   -1,
			wantFloat: -1,
			wantStr:   "Grow Tent",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.wantInt, tt.value.Int(-1))
			assert.InDelta(t, tt.wantFloat, tt.value.Float(-1), 0.0001)
			assert.Equal(t, tt.wantStr, tt.value.String("def"))
		})
	}
}
