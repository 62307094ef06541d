package runner

import "os"

// BuildArgs returns the Julia arguments for one invocation. The sysimage flag
// is only added when the configured file exists.
func BuildArgs(cfg Config, workDir, scriptPath string) []string {
	args := make([]string, 0, 4)
	if cfg.HeapSizeHint != "" {
		args = append(args, "--heap-size-hint="+cfg.HeapSizeHint)
	}
	if SysimageAvailable(cfg.SysimagePath) {
		args = append(args, "--sysimage="+cfg.SysimagePath)
	}
	args = append(args, "--project="+workDir, scriptPath)
	return args
}

// SysimageAvailable reports whether path names an existing regular file.
func SysimageAvailable(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
