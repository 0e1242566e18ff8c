// internal/bench/tools.go
package bench

import "fmt"

// Tool identifies one external compressor in the fixed benchmark set.
type Tool string

const (
	Tool7zip   Tool = "7zip"
	ToolZip    Tool = "zip"
	ToolWinrar Tool = "winrar"
	ToolGzip   Tool = "gzip"
	ToolBzip2  Tool = "bzip2"
	ToolFlac   Tool = "flac"
)

// executables maps each tool to the binary it shells out to.
var executables = map[Tool]string{
	Tool7zip:   "7z",
	ToolZip:    "zip",
	ToolWinrar: "rar",
	ToolGzip:   "gzip",
	ToolBzip2:  "bzip2",
	ToolFlac:   "flac",
}

// outputSuffixes name the compressed artifact each tool produces.
var outputSuffixes = map[Tool]string{
	Tool7zip:   "7z",
	ToolZip:    "zip",
	ToolWinrar: "rar",
	ToolGzip:   "gz",
	ToolBzip2:  "bz2",
	ToolFlac:   "flac",
}

// Tools lists the benchmark sweep in its fixed invocation order.
func Tools() []Tool {
	return []Tool{Tool7zip, ToolZip, ToolWinrar, ToolGzip, ToolBzip2, ToolFlac}
}

// ToolNames returns the sweep as plain strings, in order. The model
// label encoder must cover exactly this set.
func ToolNames() []string {
	tools := Tools()
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = string(t)
	}
	return names
}

// ParseTool validates a user-supplied tool name.
func ParseTool(name string) (Tool, error) {
	t := Tool(name)
	if _, ok := executables[t]; !ok {
		return "", fmt.Errorf("bench: unknown tool %q", name)
	}
	return t, nil
}

// Executable returns the binary name the tool requires on the path.
func (t Tool) Executable() string {
	return executables[t]
}

// OutputSuffix returns the file suffix for the tool's compressed output.
func (t Tool) OutputSuffix() string {
	return outputSuffixes[t]
}
