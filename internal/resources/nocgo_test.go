//go:build !cgo

package resources

const cgoEnabled = false
