package convert

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// checkFile verifies src is a regular file and, unless overwrite is set, that
// dest does not exist yet.
func checkFile(src, dest string, overwrite bool) error {
	srcFileInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("cannot stat source file %q: %w", src, err)
	}
	if !srcFileInfo.Mode().IsRegular() {
		return fmt.Errorf("cannot read non-regular file %q: %s", srcFileInfo.Name(), srcFileInfo.Mode().String())
	}
	if overwrite {
		return nil
	}

	destFileInfo, err := os.Stat(dest)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("cannot stat destination file %q: %w", dest, err)
		}
	} else {
		return fmt.Errorf("destination file already exists: %q", destFileInfo.Name())
	}

	return nil
}
