// Package codec decodes proof bundles and verifying keys from this module's
// own byte layout, written by the matching encoder here and by the fixtures
// package. The layout follows bincode conventions: little-endian fixed-width
// integers, u64 length prefixes for sequences and strings, one-byte bool and
// option tags, and struct fields in declaration order.
//
// Decoding never panics. Every malformed input yields a *DecodeError.
package codec

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/field"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/proof"
)

// Minimal encoded sizes, used to bound length prefixes.
const (
	digestSize       = proof.DigestLen * 4
	minChipSize      = 8 + 8 + 8 + 8 + 8
	minSegmentSize   = 3*digestSize + 8 + 8 + 8 + digestSize
	minChipInfoSize  = 8 + 8
	minVerifyingSize = digestSize + 4 + 8
)

// MetaProofRecord is the decoded form of a serialized proof bundle.
type MetaProofRecord struct {
	Proofs []proof.Segment
	Vks    []proof.VerifyingKey

	// PvStream is only meaningful when HasPvStream is set
	PvStream    []byte
	HasPvStream bool
}

// Decoder decodes bundles and keys for a field configuration.
type Decoder interface {
	DecodeMetaProof(cfg field.Config, data []byte) (*MetaProofRecord, error)
	DecodeVerifyingKey(cfg field.Config, data []byte) (*proof.VerifyingKey, error)
}

// Codec is the default Decoder.
type Codec struct {
	maxBytes int
	log      zerolog.Logger
}

var _ Decoder = (*Codec)(nil)

// New returns a codec rejecting inputs longer than maxBytes. A non-positive
// maxBytes disables the limit.
func New(maxBytes int, log zerolog.Logger) *Codec {
	return &Codec{
		maxBytes: maxBytes,
		log:      log.With().Str("component", "codec").Logger(),
	}
}

// DecodeMetaProof decodes a serialized proof bundle.
func (c *Codec) DecodeMetaProof(cfg field.Config, data []byte) (*MetaProofRecord, error) {
	c.log.Debug().Int("bytes", len(data)).Str("field", cfg.Name()).Msg("decoding proof bundle")

	if err := c.checkSize("proof bundle", data); err != nil {
		return nil, err
	}

	r := NewReader(cfg, data)
	rec, err := readMetaProof(r)
	if err != nil {
		return nil, err
	}
	if err := finish("proof bundle", r); err != nil {
		return nil, err
	}
	return rec, nil
}

// DecodeVerifyingKey decodes a stand-alone serialized verifying key.
func (c *Codec) DecodeVerifyingKey(cfg field.Config, data []byte) (*proof.VerifyingKey, error) {
	c.log.Debug().Int("bytes", len(data)).Str("field", cfg.Name()).Msg("decoding verifying key")

	if err := c.checkSize("verifying key", data); err != nil {
		return nil, err
	}

	r := NewReader(cfg, data)
	vk, err := readVerifyingKey(r)
	if err != nil {
		return nil, wrap("verifying key", r, err)
	}
	if err := finish("verifying key", r); err != nil {
		return nil, err
	}
	return &vk, nil
}

func (c *Codec) checkSize(target string, data []byte) error {
	if c.maxBytes > 0 && len(data) > c.maxBytes {
		return &DecodeError{Target: target, Offset: c.maxBytes, Cause: ErrTooLarge}
	}
	return nil
}

func finish(target string, r *Reader) error {
	if r.Remaining() != 0 {
		return &DecodeError{Target: target, Offset: r.Offset(), Cause: ErrTrailingBytes}
	}
	return nil
}

// wrap attaches the target and offset unless err already carries them.
func wrap(target string, r *Reader, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Target: target, Offset: r.Offset(), Cause: err}
}

func readMetaProof(r *Reader) (*MetaProofRecord, error) {
	n, err := r.Len(minSegmentSize)
	if err != nil {
		return nil, wrap("proof bundle", r, err)
	}
	rec := &MetaProofRecord{Proofs: make([]proof.Segment, n)}
	for i := range rec.Proofs {
		if rec.Proofs[i], err = readSegment(r); err != nil {
			return nil, wrap("segment", r, err)
		}
	}

	n, err = r.Len(minVerifyingSize)
	if err != nil {
		return nil, wrap("proof bundle", r, err)
	}
	rec.Vks = make([]proof.VerifyingKey, n)
	for i := range rec.Vks {
		if rec.Vks[i], err = readVerifyingKey(r); err != nil {
			return nil, wrap("verifying key", r, err)
		}
	}

	present, err := r.Option()
	if err != nil {
		return nil, wrap("public value stream", r, err)
	}
	if present {
		stream, err := r.Bytes()
		if err != nil {
			return nil, wrap("public value stream", r, err)
		}
		rec.PvStream = append([]byte(nil), stream...)
		rec.HasPvStream = true
	}
	return rec, nil
}

func readSegment(r *Reader) (proof.Segment, error) {
	var (
		s   proof.Segment
		err error
	)
	if s.Commitments.Main, err = r.Digest(); err != nil {
		return s, err
	}
	if s.Commitments.Permutation, err = r.Digest(); err != nil {
		return s, err
	}
	if s.Commitments.Quotient, err = r.Digest(); err != nil {
		return s, err
	}

	n, err := r.Len(minChipSize)
	if err != nil {
		return s, err
	}
	s.Chips = make([]proof.ChipOpenedValues, n)
	for i := range s.Chips {
		if s.Chips[i], err = readChip(r); err != nil {
			return s, wrap("chip opening", r, err)
		}
	}

	opening, err := r.Bytes()
	if err != nil {
		return s, err
	}
	s.OpeningProof = append([]byte(nil), opening...)

	if s.PublicValues, err = r.Felts(); err != nil {
		return s, err
	}
	if s.TranscriptDigest, err = r.Digest(); err != nil {
		return s, err
	}
	return s, nil
}

func readChip(r *Reader) (proof.ChipOpenedValues, error) {
	var (
		c   proof.ChipOpenedValues
		err error
	)
	if c.Name, err = r.Str(); err != nil {
		return c, err
	}
	if c.LogDegree, err = r.U64(); err != nil {
		return c, err
	}
	if c.Local, err = r.Felts(); err != nil {
		return c, err
	}
	if c.Next, err = r.Felts(); err != nil {
		return c, err
	}
	if c.Quotient, err = r.Felts(); err != nil {
		return c, err
	}
	return c, nil
}

func readVerifyingKey(r *Reader) (proof.VerifyingKey, error) {
	var (
		vk  proof.VerifyingKey
		err error
	)
	if vk.Commit, err = r.Digest(); err != nil {
		return vk, err
	}
	if vk.PcStart, err = r.Felt(); err != nil {
		return vk, err
	}
	n, err := r.Len(minChipInfoSize)
	if err != nil {
		return vk, err
	}
	vk.PreprocessedChips = make([]proof.ChipInfo, n)
	for i := range vk.PreprocessedChips {
		ci := &vk.PreprocessedChips[i]
		if ci.Name, err = r.Str(); err != nil {
			return vk, err
		}
		if ci.LogDegree, err = r.U64(); err != nil {
			return vk, err
		}
	}
	return vk, nil
}

// EncodeMetaProof serializes rec in the format DecodeMetaProof reads.
func EncodeMetaProof(rec *MetaProofRecord) ([]byte, error) {
	if rec == nil {
		return nil, errors.New("codec: nil proof bundle")
	}
	w := NewWriter(1024)
	w.Len(len(rec.Proofs))
	for i := range rec.Proofs {
		writeSegment(w, &rec.Proofs[i])
	}
	w.Len(len(rec.Vks))
	for i := range rec.Vks {
		writeVerifyingKey(w, &rec.Vks[i])
	}
	w.Bool(rec.HasPvStream)
	if rec.HasPvStream {
		w.ByteString(rec.PvStream)
	}
	return w.Bytes(), nil
}

// EncodeVerifyingKey serializes vk in the format DecodeVerifyingKey reads.
func EncodeVerifyingKey(vk *proof.VerifyingKey) ([]byte, error) {
	if vk == nil {
		return nil, errors.New("codec: nil verifying key")
	}
	w := NewWriter(minVerifyingSize + len(vk.PreprocessedChips)*32)
	writeVerifyingKey(w, vk)
	return w.Bytes(), nil
}

func writeSegment(w *Writer, s *proof.Segment) {
	w.Digest(s.Commitments.Main)
	w.Digest(s.Commitments.Permutation)
	w.Digest(s.Commitments.Quotient)
	w.Len(len(s.Chips))
	for _, c := range s.Chips {
		w.Str(c.Name)
		w.U64(c.LogDegree)
		w.Felts(c.Local)
		w.Felts(c.Next)
		w.Felts(c.Quotient)
	}
	w.ByteString(s.OpeningProof)
	w.Felts(s.PublicValues)
	w.Digest(s.TranscriptDigest)
}

func writeVerifyingKey(w *Writer, vk *proof.VerifyingKey) {
	w.Digest(vk.Commit)
	w.Felt(vk.PcStart)
	w.Len(len(vk.PreprocessedChips))
	for _, ci := range vk.PreprocessedChips {
		w.Str(ci.Name)
		w.U64(ci.LogDegree)
	}
}
