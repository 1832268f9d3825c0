// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with zap logging, lifecycle observers and
// credential redaction. OSCommandRunner launches processes through os/exec and
// drains both output streams line by line before waiting on the process, so a
// chatty child can never stall on a full pipe.
package execshell
