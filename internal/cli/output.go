package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
	ColorDim    = "\033[2m"
)

// Output handles formatted output for the CLI.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
}

// NewOutput creates a new Output instance.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &Output{
		writer:       cmd.OutOrStdout(),
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && isTerminal(),
	}
}

// isTerminal checks if stdout is a terminal.
func isTerminal() bool {
	fileInfo, _ := os.Stdout.Stat()
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON outputs data as JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Println prints a message with newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Success prints a success message in green.
func (o *Output) Success(format string, args ...interface{}) {
	o.colored(ColorGreen, format, args...)
}

// Error prints an error message in red.
func (o *Output) Error(format string, args ...interface{}) {
	o.colored(ColorRed, format, args...)
}

// Warning prints a warning message in yellow.
func (o *Output) Warning(format string, args ...interface{}) {
	o.colored(ColorYellow, format, args...)
}

// Info prints an info message in cyan.
func (o *Output) Info(format string, args ...interface{}) {
	o.colored(ColorCyan, format, args...)
}

// Bold prints a bold message.
func (o *Output) Bold(format string, args ...interface{}) {
	o.colored(ColorBold, format, args...)
}

// Dim prints a dimmed message.
func (o *Output) Dim(format string, args ...interface{}) {
	o.colored(ColorDim, format, args...)
}

// colored prints a colored message.
func (o *Output) colored(color, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if o.colorEnabled {
		fmt.Fprintf(o.writer, "%s%s%s\n", color, msg, ColorReset)
	} else {
		fmt.Fprintln(o.writer, msg)
	}
}
