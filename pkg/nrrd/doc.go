// Package nrrd reads and writes label volumes stored in the NRRD
// (Nearly Raw Raster Data) format.
//
// A NRRD file is a short text header followed by the sample data, either
// in the same file after a blank line or in a separate file named by the
// "data file" field (the .nhdr/.raw pairing). The package understands the
// scalar sample types and the raw, gzip, bzip2, ascii and hex encodings.
//
// # Reading
//
// Use [ReadFile] to load a file and [Nrrd.Volume] to turn it into a
// 3D label volume:
//
//	n, err := nrrd.ReadFile("mask.nrrd")
//	if err != nil {
//		return err
//	}
//	vol, err := n.Volume()
//
// Samples are decoded to int64. Floating-point samples are rounded to the
// nearest integer, with NaN mapped to 0.
//
// # Writing
//
// [Write] and [WriteFile] emit NRRD0004 files with raw, gzip or ascii
// encoding. They exist mainly to produce fixtures.
package nrrd
