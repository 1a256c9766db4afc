package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/teranos/atomspace/am"
	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/logger"
	"github.com/teranos/atomspace/store"
	"github.com/teranos/atomspace/sym"
)

// knowledgeBase is a seed file: the atoms a command loads into a fresh,
// in-memory store. Nothing is written back.
type knowledgeBase struct {
	Atoms []atom.Atom `yaml:"atoms" toml:"atoms"`
}

// readKnowledgeBase decodes a seed file by extension: .toml with BurntSushi,
// anything else as YAML (which includes JSON).
func readKnowledgeBase(path string) (*knowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read knowledge base %s", path)
	}

	var kb knowledgeBase
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), &kb)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.WithHintf(
				errors.NewInvalidRequestError("%s: unknown key %s", path, undecoded[0]),
				"atoms take id, type, name, outgoing, truthValue and attentionValue")
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&kb); err != nil && err != io.EOF {
			return nil, errors.Wrapf(err, "failed to decode %s", path)
		}
	}
	return &kb, nil
}

// loadStore reads a seed file into a new store.
func loadStore(path string, cfg am.StoreConfig, log *zap.SugaredLogger) (*store.Store, error) {
	kb, err := readKnowledgeBase(path)
	if err != nil {
		return nil, err
	}
	st := store.New(cfg, log)
	if _, err := st.AddAtoms(kb.Atoms); err != nil {
		return nil, errors.Wrapf(err, "knowledge base %s", path)
	}
	log.Infow("knowledge base loaded", "path", path, "atoms", st.Len())
	return st, nil
}

// openStore loads a command's knowledge base argument.
func openStore(cmd *cobra.Command, path string, cfg am.StoreConfig) (*store.Store, error) {
	st, err := loadStore(path, cfg, commandLogger("store"))
	if err != nil {
		return nil, err
	}
	note(cmd, logger.OutputStartup, "%s %d atoms from %s", sym.Store, st.Len(), path)
	return st, nil
}
