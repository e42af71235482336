package starkverifier

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/bundle"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/codec"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/field"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/fixtures"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/machine"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/metrics"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/proof"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/variant"
)

type mockDecoder struct {
	mock.Mock
}

func (m *mockDecoder) DecodeMetaProof(cfg field.Config, data []byte) (*codec.MetaProofRecord, error) {
	ret := m.Called(cfg, data)
	rec, _ := ret.Get(0).(*codec.MetaProofRecord)
	return rec, ret.Error(1)
}

func (m *mockDecoder) DecodeVerifyingKey(cfg field.Config, data []byte) (*proof.VerifyingKey, error) {
	ret := m.Called(cfg, data)
	vk, _ := ret.Get(0).(*proof.VerifyingKey)
	return vk, ret.Error(1)
}

type fakeMachine struct {
	err   error
	calls atomic.Int32
}

func (m *fakeMachine) Verify(*bundle.MetaProof, *proof.VerifyingKey) error {
	m.calls.Add(1)
	return m.err
}

type recordingCollector struct {
	mu       sync.Mutex
	outcomes []string
	builds   int
	inputs   int
}

func (c *recordingCollector) Verification(variant, outcome string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, variant+"/"+outcome)
}

func (c *recordingCollector) InputSize(string, string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs++
}

func (c *recordingCollector) MachineConstruction(string, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builds++
}

func newVerifier(t *testing.T, config *Config, opts ...Option) *Verifier {
	t.Helper()
	v, err := New(config, opts...)
	require.NoError(t, err)
	return v
}

var tagFixtures = map[string]variant.Variant{
	TagBabyBear:  variant.BabyBearPico,
	TagKoalaBear: variant.KoalaBearPico,
	TagPico:      variant.KoalaBearPico,
	TagPicoPrism: variant.KoalaBearPicoPrism,
}

func TestVerifyValid(t *testing.T) {
	v := newVerifier(t, nil)

	for tag, vr := range tagFixtures {
		t.Run(tag, func(t *testing.T) {
			b := fixtures.MustBuild(vr, fixtures.WithSegments(2))
			valid, err := v.Verify(tag, b.ProofBytes, b.VKBytes)
			require.NoError(t, err)
			assert.True(t, valid)
		})
	}
}

func TestVerifyConvenienceEntryPoints(t *testing.T) {
	v := newVerifier(t, DefaultConfig().WithVKVerification(true))

	bb := fixtures.MustBuild(variant.BabyBearPico)
	kb := fixtures.MustBuild(variant.KoalaBearPico)
	prism := fixtures.MustBuild(variant.KoalaBearPicoPrism)

	for name, fn := range map[string]func() (bool, error){
		"BabyBear":  func() (bool, error) { return v.VerifyBabyBear(bb.ProofBytes, bb.VKBytes) },
		"KoalaBear": func() (bool, error) { return v.VerifyKoalaBear(kb.ProofBytes, kb.VKBytes) },
		"Pico":      func() (bool, error) { return v.VerifyPico(kb.ProofBytes, kb.VKBytes) },
		"PicoPrism": func() (bool, error) { return v.VerifyPicoPrism(prism.ProofBytes, prism.VKBytes) },
		"package":   func() (bool, error) { return VerifyKoalaBear(kb.ProofBytes, kb.VKBytes) },
	} {
		valid, err := fn()
		require.NoError(t, err, name)
		assert.True(t, valid, name)
	}
}

func TestVerifyUnsupportedVariantNeverDecodes(t *testing.T) {
	decoder := &mockDecoder{}
	v := newVerifier(t, nil, WithDecoder(decoder))
	b := fixtures.MustBuild(variant.KoalaBearPico)

	for _, tag := range []string{"", "koalabear", "Goldilocks", "BN254", "Pico "} {
		for _, input := range [][]byte{nil, {}, b.ProofBytes} {
			valid, err := v.Verify(tag, input, input)
			assert.False(t, valid)
			require.Error(t, err)
			assert.True(t, errors.Is(err, UnsupportedVariant))
			assert.True(t, errors.Is(err, variant.ErrUnsupportedVariant))
		}
	}

	decoder.AssertNotCalled(t, "DecodeMetaProof", mock.Anything, mock.Anything)
	decoder.AssertNotCalled(t, "DecodeVerifyingKey", mock.Anything, mock.Anything)
}

func TestVerifyDecodesKeyWithBundleField(t *testing.T) {
	b := fixtures.MustBuild(variant.BabyBearPico)
	isBabyBear := mock.MatchedBy(func(cfg field.Config) bool { return cfg.ID() == field.BabyBear })

	decoder := &mockDecoder{}
	decoder.On("DecodeMetaProof", isBabyBear, b.ProofBytes).Return(b.Record, nil).Once()
	decoder.On("DecodeVerifyingKey", isBabyBear, b.VKBytes).Return(b.ProgramKey, nil).Once()

	v := newVerifier(t, nil, WithDecoder(decoder))
	valid, err := v.Verify(TagBabyBear, b.ProofBytes, b.VKBytes)
	require.NoError(t, err)
	assert.True(t, valid)
	decoder.AssertExpectations(t)
}

func TestVerifyDecodeFailure(t *testing.T) {
	v := newVerifier(t, nil)
	b := fixtures.MustBuild(variant.KoalaBearPico)

	t.Run("TruncatedBundle", func(t *testing.T) {
		valid, err := v.Verify(TagKoalaBear, b.ProofBytes[:len(b.ProofBytes)-10], b.VKBytes)
		assert.False(t, valid)
		assert.True(t, errors.Is(err, DecodeFailure))

		var de *codec.DecodeError
		assert.ErrorAs(t, err, &de)
	})

	t.Run("TruncatedKey", func(t *testing.T) {
		valid, err := v.Verify(TagKoalaBear, b.ProofBytes, b.VKBytes[:len(b.VKBytes)-10])
		assert.False(t, valid)
		assert.True(t, errors.Is(err, DecodeFailure))
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := v.Verify(TagPico, nil, nil)
		assert.True(t, errors.Is(err, DecodeFailure))
	})

	t.Run("TooLarge", func(t *testing.T) {
		small := newVerifier(t, DefaultConfig().WithMaxProofBytes(len(b.ProofBytes)-1))
		_, err := small.Verify(TagPico, b.ProofBytes, b.VKBytes)
		assert.True(t, errors.Is(err, DecodeFailure))
		assert.True(t, errors.Is(err, codec.ErrTooLarge))
	})
}

func TestVerifyAssemblyFailure(t *testing.T) {
	v := newVerifier(t, nil)
	b := fixtures.MustBuild(variant.KoalaBearPicoPrism, fixtures.WithSegments(2),
		fixtures.WithMutation(func(rec *codec.MetaProofRecord, _ *proof.VerifyingKey) {
			rec.Vks = rec.Vks[:1]
		}))

	valid, err := v.Verify(TagPicoPrism, b.ProofBytes, b.VKBytes)
	assert.False(t, valid)
	assert.True(t, errors.Is(err, AssemblyFailure))

	var ae *bundle.AssemblyError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 2, ae.Segments)
	assert.Equal(t, 1, ae.Keys)
}

func TestVerifyInvalidProof(t *testing.T) {
	v := newVerifier(t, nil)
	b := fixtures.MustBuild(variant.KoalaBearPico, fixtures.WithPublicValues(func(_ int, pv *proof.RecursionPublicValues) {
		pv.ExitCode = 3
	}))

	valid, err := v.Verify(TagKoalaBear, b.ProofBytes, b.VKBytes)
	assert.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifyMachineFault(t *testing.T) {
	v := newVerifier(t, nil)
	b := fixtures.MustBuild(variant.KoalaBearPico, fixtures.WithMutation(func(rec *codec.MetaProofRecord, _ *proof.VerifyingKey) {
		rec.Proofs[0].Chips[0].Name = "Keccak"
	}))

	valid, err := v.Verify(TagPico, b.ProofBytes, b.VKBytes)
	assert.False(t, valid)
	assert.True(t, errors.Is(err, VerificationFailure))
	assert.True(t, errors.Is(err, machine.ErrMalformedBundle))
}

func TestVerifyResultPolicy(t *testing.T) {
	b := fixtures.MustBuild(variant.BabyBearPico)

	tests := []struct {
		name      string
		err       error
		valid     bool
		wantError error
	}{
		{"Valid", nil, true, nil},
		{"Invalid", machine.ErrInvalidProof, false, nil},
		{"WrappedInvalid", fmt.Errorf("segment 3: %w", machine.ErrInvalidProof), false, nil},
		{"Fault", errors.New("out of memory"), false, VerificationFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMachine{err: tt.err}
			factory := machine.FactoryFunc(func(variant.Variant) (machine.Machine, error) { return m, nil })
			v := newVerifier(t, nil, WithMachineFactory(factory))

			valid, err := v.Verify(TagBabyBear, b.ProofBytes, b.VKBytes)
			assert.Equal(t, tt.valid, valid)
			if tt.wantError == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, tt.wantError))
			}
			assert.Equal(t, int32(1), m.calls.Load())
		})
	}
}

func TestVerifyFactoryFault(t *testing.T) {
	b := fixtures.MustBuild(variant.BabyBearPico)
	factory := machine.FactoryFunc(func(variant.Variant) (machine.Machine, error) {
		return nil, errors.New("no device")
	})
	v := newVerifier(t, nil, WithMachineFactory(factory))

	valid, err := v.Verify(TagBabyBear, b.ProofBytes, b.VKBytes)
	assert.False(t, valid)
	assert.True(t, errors.Is(err, VerificationFailure))
}

func TestWithMachineFactoryReplacesReferenceMachine(t *testing.T) {
	b := fixtures.MustBuild(variant.KoalaBearPico)

	reference := newVerifier(t, nil)
	valid, err := reference.VerifyKoalaBear(b.ProofBytes, b.VKBytes)
	require.NoError(t, err)
	require.True(t, valid)

	// a verifier that also checks opening proofs rejects what the
	// structural machine accepts
	strict := &fakeMachine{err: fmt.Errorf("opening proof: %w", machine.ErrInvalidProof)}
	factory := machine.FactoryFunc(func(variant.Variant) (machine.Machine, error) { return strict, nil })
	v := newVerifier(t, nil, WithMachineFactory(factory))

	valid, err = v.VerifyKoalaBear(b.ProofBytes, b.VKBytes)
	assert.NoError(t, err)
	assert.False(t, valid)
	assert.Equal(t, int32(1), strict.calls.Load())
}

func TestVerifyFlippedByteNeverValid(t *testing.T) {
	v := newVerifier(t, DefaultConfig().WithVKVerification(true))
	b := fixtures.MustBuild(variant.KoalaBearPico)

	for i := range b.ProofBytes {
		valid, _ := v.Verify(TagKoalaBear, fixtures.FlipByte(b.ProofBytes, i), b.VKBytes)
		require.False(t, valid, "proof byte %d", i)
	}
	for i := range b.VKBytes {
		valid, _ := v.Verify(TagKoalaBear, b.ProofBytes, fixtures.FlipByte(b.VKBytes, i))
		require.False(t, valid, "vk byte %d", i)
	}
}

func TestVerifyWrongVariantNeverValid(t *testing.T) {
	v := newVerifier(t, nil)

	kb := fixtures.MustBuild(variant.KoalaBearPico)
	valid, _ := v.Verify(TagBabyBear, kb.ProofBytes, kb.VKBytes)
	assert.False(t, valid)

	// same field, different chip set
	valid, _ = v.Verify(TagPicoPrism, kb.ProofBytes, kb.VKBytes)
	assert.False(t, valid)
}

func TestVerifyIdempotent(t *testing.T) {
	v := newVerifier(t, nil)
	good := fixtures.MustBuild(variant.KoalaBearPicoPrism, fixtures.WithSegments(3))
	bad := fixtures.FlipByte(good.ProofBytes, 40)

	for i := 0; i < 3; i++ {
		valid, err := v.Verify(TagPicoPrism, good.ProofBytes, good.VKBytes)
		require.NoError(t, err)
		assert.True(t, valid)

		valid, _ = v.Verify(TagPicoPrism, bad, good.VKBytes)
		assert.False(t, valid)
	}
}

func TestVerifyConcurrent(t *testing.T) {
	v := newVerifier(t, DefaultConfig().WithMachineCacheSize(3))
	tags := []string{TagBabyBear, TagKoalaBear, TagPico, TagPicoPrism}

	var wg sync.WaitGroup
	for i := 0; i < 24; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tag := tags[i%len(tags)]
			b := fixtures.MustBuild(tagFixtures[tag], fixtures.WithSeed(uint64(i)))
			valid, err := v.Verify(tag, b.ProofBytes, b.VKBytes)
			assert.NoError(t, err)
			assert.True(t, valid)
		}(i)
	}
	wg.Wait()
}

func TestMachineCache(t *testing.T) {
	var builds atomic.Int32
	inner := machine.NewCombineFactory(machine.DefaultOptions())
	factory := machine.FactoryFunc(func(vr variant.Variant) (machine.Machine, error) {
		builds.Add(1)
		return inner.New(vr)
	})
	b := fixtures.MustBuild(variant.KoalaBearPico)

	fresh := newVerifier(t, nil, WithMachineFactory(factory))
	for i := 0; i < 3; i++ {
		_, err := fresh.Verify(TagPico, b.ProofBytes, b.VKBytes)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), builds.Load())

	builds.Store(0)
	cached := newVerifier(t, DefaultConfig().WithMachineCacheSize(2), WithMachineFactory(factory))
	for i := 0; i < 3; i++ {
		_, err := cached.Verify(TagPico, b.ProofBytes, b.VKBytes)
		require.NoError(t, err)
	}
	// "Pico" and "KoalaBear" share a machine
	_, err := cached.Verify(TagKoalaBear, b.ProofBytes, b.VKBytes)
	require.NoError(t, err)
	assert.Equal(t, int32(1), builds.Load())

	cached.PurgeMachines()
	_, err = cached.Verify(TagPico, b.ProofBytes, b.VKBytes)
	require.NoError(t, err)
	assert.Equal(t, int32(2), builds.Load())
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := New(DefaultConfig().WithMaxLogDegree(0).WithLogFormat("xml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, InvalidConfig))
}

func TestConfigIsCopied(t *testing.T) {
	config := DefaultConfig()
	v := newVerifier(t, config)
	config.MachineCacheSize = 10
	assert.Equal(t, 0, v.Config().MachineCacheSize)
}

func TestVerifyMetrics(t *testing.T) {
	collector := &recordingCollector{}
	v := newVerifier(t, nil, WithMetrics(collector))
	b := fixtures.MustBuild(variant.KoalaBearPico)

	_, _ = v.Verify(TagPico, b.ProofBytes, b.VKBytes)
	_, _ = v.Verify("Unknown", b.ProofBytes, b.VKBytes)
	_, _ = v.Verify(TagPico, b.ProofBytes[:5], b.VKBytes)

	assert.Equal(t, []string{
		"KoalaBearPico/" + metrics.OutcomeValid,
		"unknown/" + metrics.OutcomeUnsupportedVariant,
		"KoalaBearPico/" + metrics.OutcomeDecodeError,
	}, collector.outcomes)
	assert.Equal(t, 1, collector.builds)
	assert.Equal(t, 4, collector.inputs)
}

func TestVerifyLogging(t *testing.T) {
	var buf bytes.Buffer
	v := newVerifier(t, nil, WithLogger(zerolog.New(&buf)))
	b := fixtures.MustBuild(variant.BabyBearPico)

	valid, err := v.Verify(TagBabyBear, b.ProofBytes, b.VKBytes)
	require.NoError(t, err)
	require.True(t, valid)

	out := buf.String()
	assert.Contains(t, out, `"component":"verifier"`)
	assert.Contains(t, out, `"variant":"BabyBear"`)
	assert.Contains(t, out, `"valid":true`)
	assert.Contains(t, out, "verification finished")
}

func TestDecode(t *testing.T) {
	v := newVerifier(t, nil)
	b := fixtures.MustBuild(variant.KoalaBearPicoPrism, fixtures.WithSegments(2))

	d, err := v.Decode(TagPicoPrism, b.ProofBytes, b.VKBytes)
	require.NoError(t, err)
	assert.Equal(t, variant.KoalaBearPicoPrism, d.Variant)
	assert.Equal(t, 2, d.Bundle.Len())
	assert.Equal(t, b.ProgramKey, d.VerifyingKey)
}

func TestVerifierError(t *testing.T) {
	cause := errors.New("boom")
	err := &VerifierError{Code: ErrDecode, Message: "failed", Cause: cause}

	assert.Equal(t, "stark-verifier error [decode]: failed (caused by: boom)", err.Error())
	assert.True(t, errors.Is(err, DecodeFailure))
	assert.False(t, errors.Is(err, AssemblyFailure))
	assert.True(t, errors.Is(err, cause))

	bare := &VerifierError{Code: ErrAssembly, Message: "mismatch"}
	assert.Equal(t, "stark-verifier error [assembly]: mismatch", bare.Error())
}
