//go:build cgo

package resources

const cgoEnabled = true
