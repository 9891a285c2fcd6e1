// Package imagegen wraps an OpenAI-compatible image endpoint that renders
// placeholder photos for pantry items and recipes.
//
// Generate always asks for base64 output so the bytes can be written straight
// to object storage; providers that answer with a URL are downloaded instead.
// Provider and decoding failures are tagged services.ErrGenerationFailed.
package imagegen
