//go:build !windows && !linux

package logging

func threadID() uint32 {
	return 0
}
