package sequence

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yourusername/mediaget-go/internal/domain"
)

// BuildFilePath returns the output path of a transfer. An explicit file name
// is used as is, otherwise the name template is applied to the table. The
// name is joined with the output directory, or the working directory when
// none is set.
func BuildFilePath(opts domain.OutputOptions, table *Table) (string, error) {
	name := opts.File
	if name == "" {
		template := opts.Name
		if template == "" {
			template = domain.DefaultOutputName
		}

		var err error
		name, err = table.Apply(template)
		if err != nil {
			return "", err
		}
	}

	dir := opts.Dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = cwd
	}

	return filepath.Join(dir, name), nil
}

// ReplaceExtension swaps the extension of the file name in path for ext
func ReplaceExtension(path, ext string) (string, error) {
	rule, err := CompileRule(fmt.Sprintf(`%%x:s/\.\w+$/.%s/`, ext))
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(path), rule.Apply(filepath.Base(path))), nil
}
