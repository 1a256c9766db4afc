package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/atomspace/am"
	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/logger"
	"github.com/teranos/atomspace/match"
	"github.com/teranos/atomspace/store"
	"github.com/teranos/atomspace/sym"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

func zoo(t *testing.T) *store.Store {
	t.Helper()
	st, err := loadStore("testdata/zoo.yaml", am.StoreConfig{}, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	return st
}

func TestReadKnowledgeBaseFormatsAgree(t *testing.T) {
	fromYAML, err := readKnowledgeBase("testdata/zoo.yaml")
	require.NoError(t, err)
	fromTOML, err := readKnowledgeBase("testdata/zoo.toml")
	require.NoError(t, err)

	require.Len(t, fromYAML.Atoms, 7)
	if diff := cmp.Diff(fromYAML, fromTOML); diff != "" {
		t.Errorf("yaml and toml seeds differ (-yaml +toml):\n%s", diff)
	}
	assert.Equal(t, []string{"cat", "mammal"}, fromYAML.Atoms[4].Outgoing)
	assert.Nil(t, fromYAML.Atoms[3].Attention)
}

func TestReadKnowledgeBaseErrors(t *testing.T) {
	_, err := readKnowledgeBase("testdata/missing.yaml")
	assert.Error(t, err)

	_, err = readKnowledgeBase("testdata/bad.yaml")
	assert.Error(t, err, "unknown fields are rejected")

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[atoms]]\nid = \"x\"\ntype = \"ConceptNode\"\ncolour = \"red\"\n"), 0644))
	_, err = readKnowledgeBase(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	kb, err := readKnowledgeBase(empty)
	require.NoError(t, err)
	assert.Empty(t, kb.Atoms)
}

func TestResolvePattern(t *testing.T) {
	fromFile, err := resolvePattern("testdata/mammals.yaml", "", "")
	require.NoError(t, err)
	fromTemplate, err := resolvePattern("", "mammals", "testdata/templates.yaml")
	require.NoError(t, err)
	assert.Equal(t, fromFile.String(), fromTemplate.String())

	_, err = resolvePattern("", "", "")
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
	_, err = resolvePattern("testdata/mammals.yaml", "mammals", "testdata/templates.yaml")
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
	_, err = resolvePattern("", "mammals", "")
	assert.NotEmpty(t, errors.GetAllHints(err))
	_, err = resolvePattern("", "reptiles", "testdata/templates.yaml")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestQuery(t *testing.T) {
	st := zoo(t)
	p, err := resolvePattern("testdata/mammals.yaml", "", "")
	require.NoError(t, err)

	results, err := findMatches(context.Background(), st, p, am.Default(), 0, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "cat-mammal", results[0].Root().ID, "higher STI first")
	assert.Equal(t, match.Bindings{"X": "cat"}, results[0].Bindings)

	focus := 1.0
	results, err = findMatches(context.Background(), st, p, am.Default(), 0, &focus)
	require.NoError(t, err)
	require.Len(t, results, 1)

	var out bytes.Buffer
	require.NoError(t, printMatches(&out, p, results, formatTable, 0))
	assert.Contains(t, out.String(), "1 matches")
	assert.Contains(t, out.String(), "?X=cat")

	out.Reset()
	require.NoError(t, printMatches(&out, p, results, formatTable, 4))
	assert.Contains(t, out.String(), `"id": "cat-mammal"`, "-vvvv dumps matched atoms")

	out.Reset()
	require.NoError(t, printMatches(&out, p, results, formatJSON, 0))
	var decoded []match.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "cat-mammal", decoded[0].Atoms[0].ID)
}

func TestNoteFollowsVerbosity(t *testing.T) {
	newCmd := func(v int) (*cobra.Command, *bytes.Buffer) {
		cmd := &cobra.Command{Use: "x"}
		cmd.Flags().CountP("verbose", "v", "")
		for i := 0; i < v; i++ {
			require.NoError(t, cmd.Flags().Set("verbose", "+1"))
		}
		var errOut bytes.Buffer
		cmd.SetErr(&errOut)
		return cmd, &errOut
	}

	quiet, quietOut := newCmd(0)
	note(quiet, logger.OutputStartup, "%s loaded", sym.Store)
	assert.Empty(t, quietOut.String())

	chatty, chattyOut := newCmd(1)
	note(chatty, logger.OutputStartup, "%s loaded", sym.Store)
	note(chatty, logger.OutputTiming, "took %s", "1ms")
	assert.Equal(t, sym.Store+" loaded\n", chattyOut.String())
}

func TestInfer(t *testing.T) {
	report, err := infer(context.Background(), zoo(t), am.Default(), 0, 1)
	require.NoError(t, err)
	require.NotEmpty(t, report.Derived)
	require.Len(t, report.Explanations, len(report.Derived))

	found := false
	for _, a := range report.Derived {
		if a.Type == atom.InheritanceLink && cmp.Equal(a.Outgoing, []string{"cat", "animal"}) {
			found = true
		}
	}
	assert.True(t, found, "cat inherits from animal through mammal")

	var out bytes.Buffer
	require.NoError(t, printInference(&out, report, formatTable))
	assert.Contains(t, out.String(), "atoms derived")
	assert.Contains(t, out.String(), "InheritanceTransitivity")
}

func TestAttention(t *testing.T) {
	st := zoo(t)
	report, err := runAttention(context.Background(), st, am.Default(), []stimulus{{id: "dog", amount: 20}}, 100, 2)
	require.NoError(t, err)
	assert.Len(t, report.Cycles, 2)
	require.NotEmpty(t, report.Focus)
	for i := 1; i < len(report.Focus); i++ {
		assert.GreaterOrEqual(t, report.Focus[i-1].STI(), report.Focus[i].STI())
	}

	_, err = runAttention(context.Background(), st, am.Default(), []stimulus{{id: "unicorn", amount: 1}}, 100, 1)
	assert.True(t, errors.IsNotFoundError(err))

	var out bytes.Buffer
	require.NoError(t, printAttention(&out, report, formatTable, 1))
	assert.Contains(t, out.String(), "cycle 2:")
	assert.Contains(t, out.String(), "atoms in focus after 2 cycles")
}

func TestParseStimuli(t *testing.T) {
	got, err := parseStimuli([]string{"cat=20", "dog=-1.5"})
	require.NoError(t, err)
	assert.Equal(t, []stimulus{{id: "cat", amount: 20}, {id: "dog", amount: -1.5}}, got)

	for _, bad := range []string{"cat", "=3", "cat=lots"} {
		_, err := parseStimuli([]string{bad})
		assert.True(t, errors.Is(err, errors.ErrInvalidRequest), bad)
	}
}

func TestMine(t *testing.T) {
	report, err := mine(context.Background(), zoo(t), am.Default())
	require.NoError(t, err)
	require.NotEmpty(t, report.Patterns)
	assert.Equal(t, len(report.Patterns), report.Stats.Total)

	var out bytes.Buffer
	require.NoError(t, printMining(&out, report, formatTable))
	assert.Contains(t, out.String(), "ConceptNode")
}

func TestShowConfig(t *testing.T) {
	v := viper.New()
	am.SetDefaults(v)

	var out bytes.Buffer
	require.NoError(t, showConfig(&out, v, "toml"))
	assert.Contains(t, out.String(), "[attention]")

	out.Reset()
	require.NoError(t, showConfig(&out, v, "json"))
	var cfg map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &cfg))
	assert.Contains(t, cfg, "Attention")

	assert.Error(t, showConfig(&out, v, "ini"))
}

func TestCheckFormat(t *testing.T) {
	assert.NoError(t, checkFormat("table"))
	assert.NoError(t, checkFormat("json"))
	assert.NotEmpty(t, errors.GetAllHints(checkFormat("csv")))
}

func TestCommandHelpCarriesGlyph(t *testing.T) {
	assert.Equal(t, sym.Match+" Match: find atoms matching a pattern", QueryCmd.Short)
	for _, c := range []string{"am", "query", "infer", "attention", "mine", "pulse"} {
		assert.True(t, strings.HasPrefix(short(c), sym.CommandToSymbol[c]+" "), c)
		assert.NotEmpty(t, sym.CommandDescriptions[c], c)
	}
}
