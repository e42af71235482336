// Package starkverifier is the verification boundary for segmented STARK proof
// bundles of a RISC-V zkVM.
//
// A proof bundle ("MetaProof") is the serialized list of recursion segment
// proofs, the verifying key of each segment and an optional public-value
// stream. Verification decodes the bundle and the program's verifying key
// under the field of the requested variant, assembles the bundle and hands it
// to the verification machine of that variant.
//
// # Soundness
//
// The byte layout is this module's own: the codec and the fixtures package
// are a matched consumer and producer, and bytes written by other provers
// will generally fail to decode.
//
// The built-in machine is a structural reference machine. It checks segment
// shape, public-value chaining, key and transcript bindings and the
// public-value stream commitment, but it never checks the polynomial
// commitment opening proofs. Anyone can build a bundle it accepts, so a true
// result from the default configuration is not a cryptographic guarantee.
// Production callers plug in a real verifier with WithMachineFactory.
//
// # Variants
//
// Tags are case-sensitive:
//
//	"BabyBear"   BabyBear field, Pico chip set
//	"KoalaBear"  KoalaBear field, Pico chip set
//	"Pico"       KoalaBear field, Pico chip set
//	"PicoPrism"  KoalaBear field, PicoPrism chip set
//
// # Quick Start
//
//	verifier, err := starkverifier.New(starkverifier.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	valid, err := verifier.Verify("KoalaBear", proofBytes, vkBytes)
//	if err != nil {
//		// unsupported variant, malformed input or machine failure
//		log.Fatal(err)
//	}
//	fmt.Println("valid:", valid)
//
// A proof the machine checked and rejected yields (false, nil). Errors are
// *VerifierError values and can be matched with errors.Is against
// UnsupportedVariant, DecodeFailure, AssemblyFailure and VerificationFailure;
// errors.As reaches the underlying *codec.DecodeError or
// *bundle.AssemblyError.
//
// # Configuration
//
// VKVerification (the VK_VERIFICATION environment variable for the
// package-level functions) additionally binds every segment to the digest of
// its own verifying key. MachineCacheSize keeps built machines across calls;
// by default every call builds a fresh machine.
package starkverifier
