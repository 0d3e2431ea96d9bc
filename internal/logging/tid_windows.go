//go:build windows

package logging

import "golang.org/x/sys/windows"

func threadID() uint32 {
	return windows.GetCurrentThreadId()
}
