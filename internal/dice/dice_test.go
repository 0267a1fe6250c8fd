package dice_test

import (
	"testing"

	"github.com/KirkDiggler/dm-table/internal/dice"
	mockdice "github.com/KirkDiggler/dm-table/internal/dice/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNotation(t *testing.T) {
	tests := []struct {
		input   string
		want    dice.Notation
		wantErr bool
	}{
		{input: "1d6+2", want: dice.Notation{Count: 1, Sides: 6, Bonus: 2}},
		{input: "2d8", want: dice.Notation{Count: 2, Sides: 8}},
		{input: "d20", want: dice.Notation{Count: 1, Sides: 20}},
		{input: " 3D4 - 1 ", want: dice.Notation{Count: 3, Sides: 4, Bonus: -1}},
		{input: "", wantErr: true},
		{input: "1d", wantErr: true},
		{input: "0d6", wantErr: true},
		{input: "1d6+x", wantErr: true},
		{input: "sword", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := dice.ParseNotation(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNotation_String(t *testing.T) {
	assert.Equal(t, "1d6+2", dice.Notation{Count: 1, Sides: 6, Bonus: 2}.String())
	assert.Equal(t, "3d4-1", dice.Notation{Count: 3, Sides: 4, Bonus: -1}.String())
	assert.Equal(t, "1d20", dice.Notation{Count: 1, Sides: 20}.String())
}

func TestRandomRoller_Bounds(t *testing.T) {
	roller := dice.NewRandomRoller()

	for i := 0; i < 200; i++ {
		result, err := roller.Roll(2, 6, 1)
		require.NoError(t, err)
		assert.Len(t, result.Rolls, 2)
		assert.GreaterOrEqual(t, result.Total, 3)
		assert.LessOrEqual(t, result.Total, 13)
		assert.Equal(t, result.RawTotal+1, result.Total)
	}

	_, err := roller.Roll(0, 6, 0)
	assert.Error(t, err)
	_, err = roller.Roll(1, 0, 0)
	assert.Error(t, err)
}

func TestManualMockRoller_RollNotation(t *testing.T) {
	tests := []struct {
		name       string
		setupRolls []int
		notation   string
		wantTotal  int
		wantErr    bool
	}{
		{name: "single d20", setupRolls: []int{15}, notation: "1d20", wantTotal: 15},
		{name: "2d6+3", setupRolls: []int{4, 5}, notation: "2d6+3", wantTotal: 12},
		{name: "not enough rolls", setupRolls: []int{10}, notation: "2d6", wantErr: true},
		{name: "invalid roll for die size", setupRolls: []int{7}, notation: "1d6", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roller := mockdice.NewManualMockRoller(tt.setupRolls...)
			n, err := dice.ParseNotation(tt.notation)
			require.NoError(t, err)

			result, err := dice.RollNotation(roller, n)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, result.Total)
			assert.Equal(t, 0, roller.Remaining())
		})
	}
}
