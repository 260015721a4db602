package platform

import "runtime"

// IsWindows reports whether the current operating system is Windows.
// The CLI uses it to turn off --page-pinned on Windows.
var IsWindows = runtime.GOOS == "windows"
