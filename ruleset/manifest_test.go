package ruleset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleManifest = `
rules:
  - name: split
    output: ["out/a.txt", "out/b.txt"]
    shell: "split input.txt"
  - name: count
    input: ["out/a.txt", "out/b.txt"]
    output: ["out/count.txt"]
    threads: 2
    depends: ["split"]
    shell: "wc -l out/*.txt > out/count.txt"
`

func TestLoadManifestParsesRules(t *testing.T) {
	m, err := LoadManifest([]byte(sampleManifest))
	require.NoError(t, err)
	require.Len(t, m.Rules, 2)
	require.Equal(t, "split", m.Rules[0].Name)
	require.Equal(t, []string{"split"}, m.Rules[1].Depends)
}

func TestManifestBuildWiresDependencies(t *testing.T) {
	m, err := LoadManifest([]byte(sampleManifest))
	require.NoError(t, err)

	rules, err := m.Build()
	require.NoError(t, err)
	require.Len(t, rules, 2)

	count := rules["count"]
	require.NotNil(t, count)
	require.Equal(t, 2, count.Threads())
	require.Len(t, count.Depends, 1)
	require.Equal(t, "split", count.Depends[0].RuleName)
}

func TestManifestBuildRejectsUnknownDependency(t *testing.T) {
	m, err := LoadManifest([]byte(`
rules:
  - name: a
    depends: ["missing"]
`))
	require.NoError(t, err)

	_, err = m.Build()
	require.Error(t, err)
}

func TestManifestBuildRejectsDuplicateNames(t *testing.T) {
	m, err := LoadManifest([]byte(`
rules:
  - name: a
  - name: a
`))
	require.NoError(t, err)

	_, err = m.Build()
	require.Error(t, err)
}
