package onnx

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// EnvLibraryPath overrides the ONNX Runtime shared library location.
const EnvLibraryPath = "TEXTSIFT_ONNX_LIB"

func libraryName() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return "libonnxruntime.so", nil
	case "darwin":
		return "libonnxruntime.dylib", nil
	case "windows":
		return "onnxruntime.dll", nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

func systemLibraryPaths(useGPU bool) []string {
	paths := []string{
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/libonnxruntime.so",
		"/opt/onnxruntime/cpu/lib/libonnxruntime.so",
	}
	if useGPU {
		paths = append([]string{"/opt/onnxruntime/gpu/lib/libonnxruntime.so"}, paths...)
	}
	return paths
}

var initOnce sync.Once

// EnsureRuntime locates the ONNX Runtime shared library and initializes the
// environment once per process. The search order is TEXTSIFT_ONNX_LIB, then
// the conventional system locations. Construction of any engine fails
// cleanly through the returned error when no runtime is installed.
func EnsureRuntime(useGPU bool) error {
	if ort.IsInitialized() {
		return nil
	}

	var setErr error
	initOnce.Do(func() {
		if env := os.Getenv(EnvLibraryPath); env != "" {
			if _, err := os.Stat(env); err != nil {
				setErr = fmt.Errorf("onnxruntime library %s: %w", env, err)
				return
			}
			ort.SetSharedLibraryPath(env)
		} else {
			name, err := libraryName()
			if err != nil {
				setErr = err
				return
			}
			found := false
			for _, p := range systemLibraryPaths(useGPU) {
				if _, err := os.Stat(p); err == nil {
					ort.SetSharedLibraryPath(p)
					found = true
					break
				}
			}
			if !found {
				setErr = fmt.Errorf("onnxruntime library %s not found; set %s", name, EnvLibraryPath)
				return
			}
		}
		setErr = ort.InitializeEnvironment()
	})
	return setErr
}

// GPUConfig configures optional CUDA acceleration for engine sessions.
type GPUConfig struct {
	UseGPU      bool   `mapstructure:"use_gpu" yaml:"use_gpu" json:"use_gpu"`
	DeviceID    int    `mapstructure:"device_id" yaml:"device_id" json:"device_id"`
	MemLimit    uint64 `mapstructure:"mem_limit" yaml:"mem_limit" json:"mem_limit"`
	ArenaExtend string `mapstructure:"arena_extend" yaml:"arena_extend" json:"arena_extend"`
}

// DefaultGPUConfig returns the CPU-only default.
func DefaultGPUConfig() GPUConfig {
	return GPUConfig{DeviceID: 0, ArenaExtend: "kNextPowerOfTwo"}
}

// Validate checks GPU configuration values.
func (c GPUConfig) Validate() error {
	if !c.UseGPU {
		return nil
	}
	if c.DeviceID < 0 {
		return fmt.Errorf("device_id must be non-negative, got %d", c.DeviceID)
	}
	if c.ArenaExtend != "" && c.ArenaExtend != "kNextPowerOfTwo" && c.ArenaExtend != "kSameAsRequested" {
		return fmt.Errorf("invalid arena_extend %q", c.ArenaExtend)
	}
	return nil
}

// ConfigureSession appends the CUDA execution provider to the session
// options when GPU use is requested. CPU-only configs are a no-op.
func (c GPUConfig) ConfigureSession(opts *ort.SessionOptions) error {
	if !c.UseGPU {
		return nil
	}
	cudaOpts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return fmt.Errorf("create CUDA provider options: %w", err)
	}
	defer func() { _ = cudaOpts.Destroy() }()

	settings := map[string]string{
		"device_id": strconv.Itoa(c.DeviceID),
	}
	if c.MemLimit > 0 {
		settings["gpu_mem_limit"] = strconv.FormatUint(c.MemLimit, 10)
	}
	if c.ArenaExtend != "" {
		settings["arena_extend_strategy"] = c.ArenaExtend
	}
	if err := cudaOpts.Update(settings); err != nil {
		return fmt.Errorf("update CUDA provider options: %w", err)
	}
	if err := opts.AppendExecutionProviderCUDA(cudaOpts); err != nil {
		return fmt.Errorf("append CUDA execution provider: %w", err)
	}
	return nil
}
