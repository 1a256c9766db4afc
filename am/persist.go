package am

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/teranos/atomspace/errors"
)

// ToTOML renders every setting known to v (defaults, files, environment) as TOML
func ToTOML(v *viper.Viper) ([]byte, error) {
	data, err := toml.Marshal(v.AllSettings())
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return data, nil
}

// WriteDefaults writes the built-in defaults to configPath, rotating up to
// maxBackups copies (.back1 newest) of an existing file first.
func WriteDefaults(configPath string) error {
	v := viper.New()
	SetDefaults(v)

	data, err := ToTOML(v)
	if err != nil {
		return err
	}

	if err := createBackup(configPath); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	if err := os.WriteFile(configPath, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", configPath)
	}
	return nil
}

// maxBackups is how many rotated copies of a config file are kept.
const maxBackups = 3

func backupPath(configPath string, n int) string {
	return fmt.Sprintf("%s.back%d", configPath, n)
}

// createBackup shifts .backN to .backN+1, dropping the oldest, and copies the
// current file to .back1. A missing file needs no backup.
func createBackup(configPath string) error {
	content, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	oldest := backupPath(configPath, maxBackups)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to delete old backup %s", oldest)
	}
	for n := maxBackups - 1; n >= 1; n-- {
		from := backupPath(configPath, n)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		if err := os.Rename(from, backupPath(configPath, n+1)); err != nil {
			return errors.Wrapf(err, "failed to rotate %s", from)
		}
	}

	if err := os.WriteFile(backupPath(configPath, 1), content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}
	return nil
}
