package contract

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read from the working directory at startup.
const DefaultEnvFile = ".env"

// LoadEnvFiles loads variables from the given dotenv files into the process
// environment. Variables that are already set win, and missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}
	return nil
}
