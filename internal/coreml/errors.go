package coreml

import "errors"

// Sentinel errors for Core ML decoding.
// Use errors.Is() to check for specific error conditions.
var (
	// ErrMalformedSpec indicates the protobuf model spec could not be decoded.
	ErrMalformedSpec = errors.New("coreml: malformed model specification")

	// ErrManifestNotFound indicates a package directory has no Manifest.json.
	ErrManifestNotFound = errors.New("coreml: package manifest not found")

	// ErrInvalidManifest indicates Manifest.json is not valid JSON or lacks required fields.
	ErrInvalidManifest = errors.New("coreml: invalid package manifest")

	// ErrRootModelNotFound indicates the manifest's root model item is missing.
	ErrRootModelNotFound = errors.New("coreml: root model not found in package")

	// ErrInvalidCompiledMetadata indicates a compiled model's metadata.json is unusable.
	ErrInvalidCompiledMetadata = errors.New("coreml: invalid compiled model metadata")
)
