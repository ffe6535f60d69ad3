package providers

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// LibraryPathEnv overrides the shared library location when set.
const LibraryPathEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

var (
	envOnce sync.Once
	envErr  error
)

// GetSharedLibPath returns the default path to the shared library for the current platform.
//
// Returns:
//   - string: The path to the shared library.
func GetSharedLibPath() string {
	if p := os.Getenv(LibraryPathEnv); p != "" {
		return p
	}
	switch runtime.GOOS {
	case "windows":
		return "./third_party/onnxruntime.dll"
	case "darwin":
		return "./third_party/libonnxruntime.dylib"
	default:
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so"
		}
		return "./third_party/onnxruntime.so"
	}
}

// InitEnvironment loads the native runtime once per process.
//
// Later calls return the result of the first; the path of later calls is ignored.
//
// Arguments:
//   - libPath: The shared library path, or empty for GetSharedLibPath.
//
// Returns:
//   - error: An error if the library is missing or fails to initialize.
func InitEnvironment(libPath string) error {
	envOnce.Do(func() {
		if libPath == "" {
			libPath = GetSharedLibPath()
		}
		if _, err := os.Stat(libPath); err != nil {
			envErr = fmt.Errorf("ONNX Runtime library not found at %s: %w", libPath, err)
			return
		}
		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			envErr = fmt.Errorf("error initializing ORT environment: %w", err)
		}
	})
	return envErr
}
