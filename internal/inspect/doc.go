// Package inspect detects model formats and builds format-neutral reports.
//
// A Report carries what the command prints: the model description, its
// inputs, outputs and states, per-format details and package size. Core ML
// packages, compiled models and specs are described from their interface;
// ONNX, GGUF and SafeTensors files from their headers.
package inspect
