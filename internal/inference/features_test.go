package inference

import (
	"testing"

	"github.com/buger/jsonparser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeatures_KeepsInputOrder(t *testing.T) {
	f, err := ParseFeatures([]byte(`{"sex":"M","len":0.5,"diam":0.4,"height":0.1}`))
	require.NoError(t, err)

	assert.Equal(t, "M", f.Sex)
	assert.Equal(t, []string{"len", "diam", "height"}, f.Names)
	assert.Equal(t, []string{"0.5", "0.4", "0.1"}, f.Values)
}

func TestParseFeatures_SexAnywhere(t *testing.T) {
	f, err := ParseFeatures([]byte(`{"height":0.1,"sex":"f","len":2}`))
	require.NoError(t, err)

	assert.Equal(t, "f", f.Sex)
	assert.Equal(t, []string{"0.1", "2"}, f.Values)
}

func TestParseFeatures_NumericStringsAndNesting(t *testing.T) {
	f, err := ParseFeatures([]byte(`{"sex":"I","len":" 0.25 ","weight":{"whole":0.9,"shell":0.3}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"len", "weight.whole", "weight.shell"}, f.Names)
	assert.Equal(t, []string{"0.25", "0.9", "0.3"}, f.Values)
}

func TestParseFeatures_MissingSex(t *testing.T) {
	_, err := ParseFeatures([]byte(`{"len":0.5}`))
	assert.ErrorIs(t, err, ErrMissingSex)
}

func TestParseFeatures_NonNumeric(t *testing.T) {
	cases := map[string]string{
		"string": `{"sex":"M","len":"long"}`,
		"bool":   `{"sex":"M","len":true}`,
		"null":   `{"sex":"M","len":null}`,
		"array":  `{"sex":"M","len":[1,2]}`,
		"nan":    `{"sex":"M","len":"NaN"}`,
		"inf":    `{"sex":"M","len":"-Inf"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFeatures([]byte(body))
			assert.ErrorIs(t, err, ErrNonNumericFeature)
		})
	}
}

func TestParseFeatures_Malformed(t *testing.T) {
	cases := map[string]string{
		"truncated":        `{"sex":`,
		"bad number":       `{"sex":"M","len":0.5abc}`,
		"double sign":      `{"sex":"M","len":--1}`,
		"trailing garbage": `{"sex":"M","len":0.5} trailing`,
		"trailing comma":   `{"sex":"M","len":0.5,}`,
		"nested bad":       `{"sex":"M","w":{"whole":1.2.3}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			f, err := ParseFeatures([]byte(body))
			assert.Error(t, err)
			assert.Nil(t, f)
		})
	}
}

func TestAddNumber_RejectsUncheckedTokens(t *testing.T) {
	f := &Features{}
	err := f.add("len", []byte("0.5abc"), jsonparser.Number)
	assert.ErrorIs(t, err, ErrNonNumericFeature)
	assert.Empty(t, f.Values)
}

func TestOneHot(t *testing.T) {
	tests := []struct {
		sex  string
		want []string
	}{
		{"M", []string{"0.", "0.", "1.0"}},
		{"m", []string{"0.", "0.", "1.0"}},
		{"F", []string{"1.0", "0.", "0."}},
		{"f", []string{"1.0", "0.", "0."}},
		{"I", []string{"0.", "1.0", "0."}},
		{"i", []string{"0.", "1.0", "0."}},
	}
	for _, tt := range tests {
		got, ok := OneHot(tt.sex)
		assert.True(t, ok, tt.sex)
		assert.Equal(t, tt.want, got, tt.sex)
	}

	for _, bad := range []string{"", "X", "male", " M", "MM"} {
		_, ok := OneHot(bad)
		assert.False(t, ok, bad)
	}
}

func TestPayload(t *testing.T) {
	f, err := ParseFeatures([]byte(`{"sex":"M","len":0.5,"diam":0.4,"height":0.1}`))
	require.NoError(t, err)

	payload, err := f.Payload()
	require.NoError(t, err)
	assert.Equal(t, "0.5,0.4,0.1,0.,0.,1.0", payload)
}

func TestPayload_UnknownSex(t *testing.T) {
	f, err := ParseFeatures([]byte(`{"sex":"X","len":0.5}`))
	require.NoError(t, err)

	_, err = f.Payload()
	assert.ErrorIs(t, err, ErrUnknownSex)
}

func TestPayload_NonStringSexIsUnknown(t *testing.T) {
	f, err := ParseFeatures([]byte(`{"sex":1,"len":0.5}`))
	require.NoError(t, err)

	_, err = f.Payload()
	assert.ErrorIs(t, err, ErrUnknownSex)
}
