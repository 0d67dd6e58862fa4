//go:build !windows

package gokeyring

func clean(s string) string { return s }
