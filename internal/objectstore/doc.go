// Package objectstore stores generated record images in an S3 bucket.
//
// Objects are keyed "<owner>/<target id>.png" so regenerating an image
// overwrites the previous one in place. Endpoint and path-style settings let
// the same code target MinIO or another S3-compatible server.
package objectstore
