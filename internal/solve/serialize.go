package solve

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/vaniila/timetable-solver/internal/blockbuilder"
	"github.com/vaniila/timetable-solver/internal/chromatrix"
	"github.com/vaniila/timetable-solver/internal/domain"
	appErrors "github.com/vaniila/timetable-solver/pkg/errors"
)

// blockListHash fingerprints a block list's exact ordering and
// membership so a persisted chromosome can be checked against the
// block list it was sampled against before it is ever read back into a
// live solve. Reordering, adding, or removing a block changes the hash.
func blockListHash(blocks []blockbuilder.Block) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, b := range blocks {
		for _, m := range b.Members {
			binary.LittleEndian.PutUint64(buf[:], uint64(m.ID))
			h.Write(buf[:])
		}
		binary.LittleEndian.PutUint64(buf[:], 0xFFFFFFFFFFFFFFFF) // block separator
		h.Write(buf[:])
	}
	return h.Sum64()
}

// EncodeChromosome serializes chrom as an 8-byte block-list hash header
// followed by its row-major cell data.
func EncodeChromosome(blocks []blockbuilder.Block, chrom *chromatrix.Chromosome) []byte {
	out := make([]byte, 8+len(chrom.Data))
	binary.LittleEndian.PutUint64(out[:8], blockListHash(blocks))
	copy(out[8:], chrom.Data)
	return out
}

// DecodeChromosome reverses EncodeChromosome, hard-failing if the
// embedded hash no longer matches blocks: a persisted chromosome is
// only meaningful against the exact block list it was produced from.
func DecodeChromosome(blocks []blockbuilder.Block, data []byte) (*chromatrix.Chromosome, error) {
	if len(data) < 8 {
		return nil, appErrors.New(appErrors.KindInternal, "persisted chromosome too short to contain a header")
	}
	want := blockListHash(blocks)
	got := binary.LittleEndian.Uint64(data[:8])
	if got != want {
		return nil, appErrors.New(appErrors.KindInternal, "persisted chromosome header does not match current block list")
	}

	cells := data[8:]
	expected := domain.WeekdayCount * len(blocks)
	if len(cells) != expected {
		return nil, appErrors.New(appErrors.KindInternal, "persisted chromosome cell count does not match block list size")
	}

	chrom := chromatrix.New(len(blocks))
	copy(chrom.Data, cells)
	return chrom, nil
}
