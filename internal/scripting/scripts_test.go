package scripting_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/diceroll/internal/scripting"
)

// repoRoot walks up from the test's working directory to find the module root.
func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	root := wd
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			return root
		}
		parent := filepath.Dir(root)
		if parent == root {
			t.Fatalf("could not find repo root from %s", wd)
		}
		root = parent
	}
}

// loadShippedScripts loads the interpretation scripts under scripts/.
func loadShippedScripts(t *testing.T) *scripting.Manager {
	t.Helper()
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadDir(filepath.Join(repoRoot(t), "scripts")))
	return mgr
}

func TestShippedScripts_Functions(t *testing.T) {
	mgr := loadShippedScripts(t)
	assert.Equal(t, []string{"highest", "summary", "verdict"}, mgr.Functions())
}

func TestShippedScripts_Verdict(t *testing.T) {
	mgr := loadShippedScripts(t)
	tests := []struct {
		expr  string
		faces []int
		want  string
	}{
		{"5d10 t8 f1", []int{1, 1, 2, 3, 9}, "botch"},
		{"5d10 t8 f1", []int{1, 9, 2, 3, 4}, "failure"},
		{"5d10 t8 f1", []int{8, 9, 2, 3, 4}, "success"},
		{"5d10 t8 tt10 f1", []int{10, 10, 9, 3, 4}, "exceptional success"},
		{"2d6", []int{3, 4}, "not a success roll"},
	}
	for _, tc := range tests {
		out, err := mgr.Interpret("verdict", mustRoll(t, tc.expr, tc.faces...))
		require.NoError(t, err, tc.expr)
		assert.Equal(t, tc.want, out, "%s %v", tc.expr, tc.faces)
	}
}

func TestShippedScripts_Highest(t *testing.T) {
	mgr := loadShippedScripts(t)
	out, err := mgr.Interpret("highest", mustRoll(t, "4d6 k2 + 1d8", 6, 2, 5, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, "4", out, "dropped dice must not count")

	out, err = mgr.Interpret("highest", mustRoll(t, "(1d6) ^ 2", 3, 4))
	require.NoError(t, err)
	assert.Equal(t, "no dice", out)
}

func TestShippedScripts_Summary(t *testing.T) {
	mgr := loadShippedScripts(t)
	out, err := mgr.Interpret("summary", mustRoll(t, "(1d6) ^ 4", 1, 6, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, "min 1, max 6, mean 3.00", out)

	out, err = mgr.Interpret("summary", mustRoll(t, "1d6 + 2", 4))
	require.NoError(t, err)
	assert.Equal(t, "total 6", out)
}

// TestProperty_SummaryBoundsRepetitions verifies summary reports the extreme
// totals of any plain repetition.
func TestProperty_SummaryBoundsRepetitions(t *testing.T) {
	mgr := loadShippedScripts(t)
	rapid.Check(t, func(rt *rapid.T) {
		faces := rapid.SliceOfN(rapid.IntRange(1, 6), 2, 12).Draw(rt, "faces")
		lo, hi := faces[0], faces[0]
		for _, f := range faces {
			lo, hi = min(lo, f), max(hi, f)
		}
		res := mustRoll(t, "(1d6) ^ "+strconv.Itoa(len(faces)), faces...)
		out, err := mgr.Interpret("summary", res)
		require.NoError(rt, err)
		assert.Contains(rt, out, "min "+strconv.Itoa(lo)+", max "+strconv.Itoa(hi))
	})
}
