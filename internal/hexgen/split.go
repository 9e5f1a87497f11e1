package hexgen

import (
	"github.com/specialistvlad/socgrid/internal/builderr"
)

// Split de-interleaves the image into lanes byte-wide images. Lane i holds
// byte i of every word and has as many words as the parent. Lanes beyond the
// word width are all zero.
func (img *Image) Split(lanes int) ([]*Image, error) {
	if lanes < 1 {
		return nil, builderr.New(builderr.ErrMalformedImage, stage, "lane count must be positive, got %d", lanes)
	}
	out := make([]*Image, lanes)
	for l := range out {
		out[l] = img.Lane(l)
	}
	return out, nil
}

// Lane extracts a single byte lane.
func (img *Image) Lane(lane int) *Image {
	li := &Image{WordBytes: 1, Words: make([]uint64, len(img.Words))}
	if lane >= img.WordBytes {
		return li
	}
	for i := range img.Words {
		li.Words[i] = uint64(img.Byte(i, lane))
	}
	return li
}

// Merge recombines byte lanes into an image of wordBytes-wide words, taking
// byte i of every word from lane i. It is the inverse of Split.
func Merge(lanes []*Image, wordBytes int) (*Image, error) {
	if wordBytes < 1 || wordBytes > 8 {
		return nil, builderr.New(builderr.ErrMalformedImage, stage, "word width of %d bytes outside 1..8", wordBytes)
	}
	if len(lanes) < wordBytes {
		return nil, builderr.New(builderr.ErrMalformedImage, stage,
			"%d lanes cannot fill %d-byte words", len(lanes), wordBytes)
	}
	n := len(lanes[0].Words)
	for i, l := range lanes {
		if l.WordBytes != 1 {
			return nil, builderr.New(builderr.ErrMalformedImage, stage, "lane %d is %d bytes wide", i, l.WordBytes)
		}
		if len(l.Words) != n {
			return nil, builderr.New(builderr.ErrMalformedImage, stage,
				"lane %d has %d words, lane 0 has %d", i, len(l.Words), n)
		}
	}

	img := &Image{WordBytes: wordBytes, Words: make([]uint64, n)}
	for b := range wordBytes {
		for i, v := range lanes[b].Words {
			img.Words[i] |= (v & 0xff) << (8 * b)
		}
	}
	return img, nil
}
