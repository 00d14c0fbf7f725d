// Package onnx decodes the metadata of ONNX models.
//
// ONNX (Open Neural Network Exchange) models are a single protobuf ModelProto.
// This package reads the parts an inspector needs: producer information,
// opset imports, metadata properties and the graph interface (inputs,
// outputs, initializer shapes, operator histogram). Tensor payloads are
// skipped on the wire and never copied.
//
// Example usage:
//
//	model, err := onnx.ParseFile("denoiser.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Model: %s %s (IR %d)\n", model.ProducerName, model.ProducerVersion, model.IRVersion)
//	for _, in := range model.GraphInputs() {
//	    fmt.Printf("Input: %s %s\n", in.Name, in.TypeString())
//	}
package onnx
