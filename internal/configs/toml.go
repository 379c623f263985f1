package configs

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ProjectFileName is the optional per-repository settings file.
const ProjectFileName = ".cloak.toml"

// ProjectFile mirrors the contents of .cloak.toml.
type ProjectFile struct {
	Backend     string `toml:"backend,omitempty"`
	Recipient   string `toml:"recipient,omitempty"`
	AgentHelper string `toml:"agent_helper,omitempty"`
	Identity    string `toml:"identity,omitempty"`
	Backdate    string `toml:"backdate,omitempty"`
}

// SaveTOML saves a struct to a TOML file.
func SaveTOML(filePath string, data interface{}) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(data)
}

// LoadTOML loads a TOML file into a struct.
func LoadTOML(filePath string, data interface{}) error {
	_, err := toml.DecodeFile(filePath, data)
	return err
}

// LoadProjectFile reads root/.cloak.toml. A missing file yields an empty
// ProjectFile.
func LoadProjectFile(root string) (*ProjectFile, error) {
	pf := &ProjectFile{}
	path := filepath.Join(root, ProjectFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return pf, nil
	}
	if err := LoadTOML(path, pf); err != nil {
		return nil, err
	}
	return pf, nil
}
