//go:build !unix

package ytdlp

import "os/exec"

// configureProcess keeps the exec.CommandContext default, which kills only
// the direct child.
func configureProcess(cmd *exec.Cmd) {}
