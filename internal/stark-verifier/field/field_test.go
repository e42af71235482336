package field

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForID(t *testing.T) {
	tests := []struct {
		name    string
		id      ID
		modulus uint32
	}{
		{"BabyBear", BabyBear, 2013265921},
		{"KoalaBear", KoalaBear, 2130706433},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ForID(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.id, cfg.ID())
			assert.Equal(t, tt.name, cfg.Name())
			assert.Equal(t, tt.modulus, cfg.Modulus())
		})
	}
}

func TestForIDUnknown(t *testing.T) {
	_, err := ForID(ID(42))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestIsCanonical(t *testing.T) {
	bb, err := ForID(BabyBear)
	require.NoError(t, err)
	kb, err := ForID(KoalaBear)
	require.NoError(t, err)

	assert.True(t, bb.IsCanonical(0))
	assert.True(t, bb.IsCanonical(bb.Modulus()-1))
	assert.False(t, bb.IsCanonical(bb.Modulus()))

	// values between the two moduli are only valid KoalaBear elements
	between := bb.Modulus() + 1
	assert.False(t, bb.IsCanonical(between))
	assert.True(t, kb.IsCanonical(between))
	assert.False(t, kb.IsCanonical(^uint32(0)))
}

func TestReduce(t *testing.T) {
	for _, id := range []ID{BabyBear, KoalaBear} {
		cfg, err := ForID(id)
		require.NoError(t, err)
		t.Run(cfg.Name(), func(t *testing.T) {
			p := uint64(cfg.Modulus())
			assert.Equal(t, uint32(0), cfg.Reduce(p))
			assert.Equal(t, uint32(7), cfg.Reduce(p+7))
			assert.Equal(t, uint32(12345), cfg.Reduce(12345))

			v := cfg.Reduce(^uint64(0))
			assert.True(t, cfg.IsCanonical(v))
			assert.Equal(t, uint32(^uint64(0)%p), v)
		})
	}
}
