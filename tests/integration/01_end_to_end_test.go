package integration_test

import (
	"testing"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/fixtures"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/variant"
	starkverifier "github.com/vybium/vybium-stark-verifier/pkg/stark-verifier"
)

// Test01_BundleToVerdict tests the most basic flow:
// 1. Produce a serialized bundle and program key
// 2. Verify it through every tag of its variant
// 3. Verify it again with verifying key binding enabled
//
// Related example: examples/01_verify_bundle/main.go
func Test01_BundleToVerdict(t *testing.T) {
	t.Log("=== Test 01: Serialized bundle -> verdict ===")

	cases := map[string]variant.Variant{
		starkverifier.TagBabyBear:  variant.BabyBearPico,
		starkverifier.TagKoalaBear: variant.KoalaBearPico,
		starkverifier.TagPico:      variant.KoalaBearPico,
		starkverifier.TagPicoPrism: variant.KoalaBearPicoPrism,
	}

	for _, vkVerification := range []bool{false, true} {
		config := starkverifier.DefaultConfig().WithVKVerification(vkVerification)
		verifier, err := starkverifier.New(config)
		if err != nil {
			t.Fatalf("Failed to create verifier: %v", err)
		}

		for tag, vr := range cases {
			t.Logf("Step 1: Building a 3 segment %s bundle...", vr)
			b, err := fixtures.Build(vr, fixtures.WithSegments(3))
			if err != nil {
				t.Fatalf("Failed to build bundle: %v", err)
			}
			t.Logf("  proof %d bytes, key %d bytes", len(b.ProofBytes), len(b.VKBytes))

			t.Logf("Step 2: Verifying as %q (vk verification %v)...", tag, vkVerification)
			valid, err := verifier.Verify(tag, b.ProofBytes, b.VKBytes)
			if err != nil {
				t.Fatalf("Verification failed with error: %v", err)
			}
			if !valid {
				t.Fatalf("Expected %s bundle to verify as %q", vr, tag)
			}
			t.Log("  ✓ valid")
		}
	}
}

// Test01_PackageEntryPoints checks the process-wide convenience functions
func Test01_PackageEntryPoints(t *testing.T) {
	b := fixtures.MustBuild(variant.BabyBearPico)
	valid, err := starkverifier.VerifyBabyBear(b.ProofBytes, b.VKBytes)
	if err != nil || !valid {
		t.Fatalf("VerifyBabyBear = %v, %v", valid, err)
	}

	k := fixtures.MustBuild(variant.KoalaBearPico)
	for name, verify := range map[string]func([]byte, []byte) (bool, error){
		"VerifyKoalaBear": starkverifier.VerifyKoalaBear,
		"VerifyPico":      starkverifier.VerifyPico,
	} {
		valid, err := verify(k.ProofBytes, k.VKBytes)
		if err != nil || !valid {
			t.Fatalf("%s = %v, %v", name, valid, err)
		}
	}

	p := fixtures.MustBuild(variant.KoalaBearPicoPrism)
	valid, err = starkverifier.VerifyPicoPrism(p.ProofBytes, p.VKBytes)
	if err != nil || !valid {
		t.Fatalf("VerifyPicoPrism = %v, %v", valid, err)
	}
}
