// Package coreml decodes Core ML model metadata without the Core ML framework.
//
// Three on-disk shapes are understood:
//   - .mlpackage: a directory with a Manifest.json whose root item is a protobuf model spec
//   - .mlmodel: the protobuf model spec itself (CoreML.Specification.Model)
//   - .mlmodelc: a compiled model directory carrying a metadata.json summary
//
// Only the model description is decoded: inputs, outputs, states, functions and the
// metadata block. Network layers, ML programs and weights are skipped on the wire.
//
// Example usage:
//
//	pkg, err := coreml.OpenPackage("DeepFilterNet3_Streaming.mlpackage")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(pkg.Model.Description.TextFormat())
//	for _, in := range pkg.Model.Description.Inputs {
//	    fmt.Printf("%s: %s\n", in.Name, in.Type)
//	}
package coreml
