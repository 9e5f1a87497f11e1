// Package compose generates the top-level system description from a core
// template, the ordered memory list and the peripheral fragments.
//
// Composition happens in two phases. Build collects the text to insert into
// a Plan: headers are de-duplicated by identity, instance placeholders are
// substituted and every list is put in its final order. Render then copies
// the template line by line and emits each list after its marker line. The
// template is never patched in place, so composing twice with the same inputs
// yields byte-identical output.
//
// Marker lines are matched after trimming surrounding whitespace:
//
//	// PHEADER      peripheral header includes
//	// PIO          peripheral ports
//	// MEMORIES     memory instances (optional, defaults to PERIPHERALS)
//	// PERIPHERALS  peripheral instances
//
// Inserted lines inherit the marker line's indentation.
package compose
