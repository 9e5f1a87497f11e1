package hexgen

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/specialistvlad/socgrid/internal/builderr"
)

const stage = "image"

// MaxAddrW bounds the address width. An image is held in memory word by word
// and printed in full, so 2^24 words (128 MiB of words, roughly 150 MB of
// text for 4-byte words) is the largest memory it is built for.
const MaxAddrW = 24

// Image is a width-aligned memory initialisation image.
type Image struct {
	// WordBytes is the width of one memory word in bytes (1..8).
	WordBytes int
	Words     []uint64
}

// Capacity returns the number of bytes a memory with addrW address bits and
// words of wordBytes bytes can hold.
func Capacity(addrW, wordBytes int) int {
	return (1 << addrW) * wordBytes
}

func checkGeometry(addrW, wordBytes int) error {
	if addrW < 0 || addrW > MaxAddrW {
		return builderr.New(builderr.ErrMalformedAddressWidth, stage, "address width %d outside 0..%d", addrW, MaxAddrW)
	}
	if wordBytes < 1 || wordBytes > 8 {
		return builderr.New(builderr.ErrMalformedImage, stage, "word width of %d bytes outside 1..8", wordBytes)
	}
	return nil
}

// Build converts bin into an image of exactly 2^addrW words, zero-padding the
// tail. A trailing partial word is zero-extended. bin is never modified.
func Build(bin []byte, addrW, wordBytes int) (*Image, error) {
	if err := checkGeometry(addrW, wordBytes); err != nil {
		return nil, err
	}
	if capacity := Capacity(addrW, wordBytes); len(bin) > capacity {
		return nil, builderr.New(builderr.ErrOversizedBinary, stage,
			"%d bytes exceed the %d byte capacity of a %d-bit, %d-byte-word memory", len(bin), capacity, addrW, wordBytes)
	}

	img := &Image{WordBytes: wordBytes, Words: make([]uint64, 1<<addrW)}
	for i, b := range bin {
		img.Words[i/wordBytes] |= uint64(b) << (8 * (i % wordBytes))
	}
	return img, nil
}

// Byte returns byte lane of word i.
func (img *Image) Byte(i, lane int) byte {
	return byte(img.Words[i] >> (8 * lane))
}

// WriteTo prints the image one zero-padded hexadecimal word per line.
func (img *Image) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	digits := 2 * img.WordBytes
	for _, word := range img.Words {
		c, err := fmt.Fprintf(bw, "%0*x\n", digits, word)
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Bytes returns the textual form of the image.
func (img *Image) Bytes() []byte {
	var sb strings.Builder
	sb.Grow(len(img.Words) * (2*img.WordBytes + 1))
	img.WriteTo(&sb) //nolint:errcheck // strings.Builder never fails
	return []byte(sb.String())
}

// Parse reads a textual image of wordBytes-wide words. Words are separated by
// any whitespace.
func Parse(r io.Reader, wordBytes int) (*Image, error) {
	if wordBytes < 1 || wordBytes > 8 {
		return nil, builderr.New(builderr.ErrMalformedImage, stage, "word width of %d bytes outside 1..8", wordBytes)
	}
	img := &Image{WordBytes: wordBytes}
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	for sc.Scan() {
		tok := sc.Text()
		if len(tok) > 2*wordBytes {
			return nil, builderr.New(builderr.ErrMalformedImage, stage,
				"word %d %q wider than %d bytes", len(img.Words), tok, wordBytes)
		}
		v, err := strconv.ParseUint(tok, 16, 64)
		if err != nil {
			return nil, builderr.New(builderr.ErrMalformedImage, stage, "word %d: %w", len(img.Words), err)
		}
		img.Words = append(img.Words, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return img, nil
}
