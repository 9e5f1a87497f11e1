// Package hexgen turns compiled binaries into memory initialisation images.
//
// An Image holds one word per memory location. Words are assembled from the
// binary in little-endian byte order and printed most significant byte first,
// one word per line, which is the format $readmemh expects.
//
// Memories built from N byte-wide storage elements preload from N lane
// images: lane i holds byte i of every word, so lane 0 carries the least
// significant byte.
package hexgen
