// Package gguf reads the header, metadata and tensor directory of GGUF files.
//
// GGUF (GGML Universal Format) is the file format used by llama.cpp and
// whisper.cpp for quantized models. Only the descriptive prefix of the file
// is decoded: large metadata arrays (tokenizer vocabularies, merges) are
// summarised by element type and length, and tensor data is never read.
//
// Specification: https://github.com/ggerganov/ggml/blob/master/docs/gguf.md
package gguf
