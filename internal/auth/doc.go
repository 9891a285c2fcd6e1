// Package auth issues and verifies the bearer tokens that scope every pantry
// request to a single owner.
package auth
