package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Quantity
		wantErr error
	}{
		{name: "whole", input: "3", want: NewQuantity(3)},
		{name: "comma fraction", input: "1,5", want: 15_000},
		{name: "truncates beyond scale", input: "0.00009", want: 0},
		{name: "largest", input: "922337203685477.5807", want: math.MaxInt64},
		{name: "smallest", input: "-922337203685477.5808", want: math.MinInt64},
		{name: "one past largest", input: "922337203685477.5808", wantErr: ErrQuantityOutOfRange},
		{name: "exponent", input: "1e19", wantErr: ErrQuantityOutOfRange},
		{name: "huge integer", input: "100000000000000000000", wantErr: ErrQuantityOutOfRange},
		{name: "huge negative", input: "-1e30", wantErr: ErrQuantityOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuantity(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseQuantity_Malformed(t *testing.T) {
	for _, input := range []string{"", "  ", "abc", "1.2.3"} {
		_, err := ParseQuantity(input)
		assert.Error(t, err, input)
	}
}

func TestNewQuantityFromFloat64(t *testing.T) {
	q, err := NewQuantityFromFloat64(2.5)
	require.NoError(t, err)
	assert.Equal(t, Quantity(25_000), q)

	q, err = NewQuantityFromFloat64(0.12345)
	require.NoError(t, err)
	assert.Equal(t, Quantity(1_235), q)

	for _, v := range []float64{1e16, -1e16, math.Inf(1), math.NaN()} {
		_, err := NewQuantityFromFloat64(v)
		assert.ErrorIs(t, err, ErrQuantityOutOfRange, "%v", v)
	}
}

func TestQuantity_UnmarshalJSON(t *testing.T) {
	var body struct {
		Quantity Quantity `json:"quantity"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"quantity": "2,25"}`), &body))
	assert.Equal(t, Quantity(22_500), body.Quantity)
	assert.Equal(t, "2.25", body.Quantity.String())

	require.NoError(t, json.Unmarshal([]byte(`{"quantity": 4}`), &body))
	assert.Equal(t, NewQuantity(4), body.Quantity)

	err := json.Unmarshal([]byte(`{"quantity": 1e19}`), &body)
	assert.ErrorIs(t, err, ErrQuantityOutOfRange)
}
