package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// FileValidation is the validation result of one document.
type FileValidation struct {
	Path     string    `json:"path"`
	Valid    bool      `json:"valid"`
	Frames   int       `json:"frames"`
	Elements int       `json:"elements"`
	Error    *CLIError `json:"error,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document>...",
		Short: "Validate tree documents without rendering",
		Long: `Parse tree documents and check every frame the way render would,
without touching a host.

Reports unknown keys, non-string types, the reserved children prop,
text nodes with children and unclassifiable element types, with the
path of the offending element.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(paths))}
	exitCode := ExitSuccess
	for _, path := range paths {
		fv := FileValidation{Path: path}
		doc, err := LoadDocument(path)
		if err != nil {
			fv.Error = &CLIError{Code: loadErrorCode(err), Message: err.Error()}
			result.Valid = false
			if code := loadExitCode(err); code > exitCode {
				exitCode = code
			}
		} else {
			fv.Valid = true
			fv.Frames = len(doc.Frames)
			fv.Elements = doc.Elements()
			formatter.VerboseLog("%s: %d frame(s), %d element(s)", path, fv.Frames, fv.Elements)
		}
		result.Files = append(result.Files, fv)
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputValidateText(formatter, result)
	}

	if exitCode != ExitSuccess {
		return NewExitError(exitCode, "validation failed")
	}
	return nil
}

func outputValidateText(f *OutputFormatter, result ValidationResult) {
	for _, fv := range result.Files {
		if fv.Valid {
			fmt.Fprintf(f.Writer, "✓ %s (%s frame(s), %s element(s))\n",
				fv.Path, humanize.Comma(int64(fv.Frames)), humanize.Comma(int64(fv.Elements)))
			continue
		}
		fmt.Fprintf(f.Writer, "✗ %s\n", fv.Path)
		fmt.Fprintf(f.Writer, "  Error [%s]: %s\n", fv.Error.Code, fv.Error.Message)
	}
	if result.Valid {
		fmt.Fprintln(f.Writer, "✓ All documents valid")
	}
}
