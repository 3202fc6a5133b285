package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeKey serves typed values the way registry.Key does
type fakeKey struct {
	strs  map[string]string
	ints  map[string]uint64
	multi map[string][]string
	err   error
}

func (f *fakeKey) GetStringValue(name string) (string, uint32, error) {
	return f.strs[name], typeSZ, f.err
}

func (f *fakeKey) GetIntegerValue(name string) (uint64, uint32, error) {
	return f.ints[name], typeDWORD, f.err
}

func (f *fakeKey) GetStringsValue(name string) ([]string, uint32, error) {
	return f.multi[name], typeMultiSZ, f.err
}

func TestDecodeValue(t *testing.T) {
	k := &fakeKey{
		strs:  map[string]string{"Driver": `C:\sa\dbodbc12.dll`},
		ints:  map[string]uint64{"UsageCount": 3},
		multi: map[string][]string{"FileExtns": {"*.db", "*.log"}},
	}

	tests := []struct {
		name    string
		valtype uint32
		want    string
		ok      bool
	}{
		{"Driver", typeSZ, `C:\sa\dbodbc12.dll`, true},
		{"Driver", typeExpandSZ, `C:\sa\dbodbc12.dll`, true},
		{"UsageCount", typeDWORD, "3", true},
		{"UsageCount", typeQWORD, "3", true},
		{"FileExtns", typeMultiSZ, "*.db,*.log", true},
		{"Blob", typeBinary, "", false},
		{"BigEndian", 5, "", false},
	}
	for _, tt := range tests {
		v, ok, err := decodeValue(k, tt.name, tt.valtype)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.ok, ok, "%s type %d", tt.name, tt.valtype)
		assert.Equal(t, tt.want, v, "%s type %d", tt.name, tt.valtype)
	}
}

func TestDecodeValueReadError(t *testing.T) {
	errDenied := errors.New("denied")
	k := &fakeKey{err: errDenied}
	for _, vt := range []uint32{typeSZ, typeDWORD, typeMultiSZ} {
		_, _, err := decodeValue(k, "x", vt)
		assert.ErrorIs(t, err, errDenied)
	}

	// Types without a text form never touch the key
	_, ok, err := decodeValue(k, "x", typeBinary)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestParseView(t *testing.T) {
	for in, want := range map[string]View{
		"":        ViewDefault,
		"default": ViewDefault,
		"32":      View32,
		"64":      View64,
		" 64Bit ": View64,
	} {
		got, err := ParseView(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseView("128")
	assert.Error(t, err)
}

func TestNewOptions(t *testing.T) {
	assert.Equal(t, ViewDefault, New().View())
	assert.Equal(t, View32, New(With32BitView()).View())
	assert.Equal(t, View64, New(With64BitView(), WithLogger(zap.NewNop())).View())
	assert.Equal(t, View64, New(WithView(View32), WithView(View64)).View())
	assert.Equal(t, "32", View32.String())
}
