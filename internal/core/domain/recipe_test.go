package domain_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestRecipeTask_Key(t *testing.T) {
	t.Chdir(t.TempDir())

	rel := domain.RecipeTask{Location: "recipes/numpy/"}
	abs, err := filepath.Abs("recipes/numpy")
	require.NoError(t, err)

	assert.Equal(t, abs, rel.Key())
	assert.Equal(t, rel.Key(), domain.RecipeTask{Location: abs}.Key())
}

func TestResolvedRecipe_Close(t *testing.T) {
	t.Run("runs cleanup once", func(t *testing.T) {
		calls := 0
		r := &domain.ResolvedRecipe{Cleanup: func() error {
			calls++
			return nil
		}}

		require.NoError(t, r.Close())
		require.NoError(t, r.Close())
		assert.Equal(t, 1, calls)
	})

	t.Run("returns cleanup error", func(t *testing.T) {
		boom := errors.New("boom")
		r := &domain.ResolvedRecipe{Cleanup: func() error { return boom }}
		assert.ErrorIs(t, r.Close(), boom)
	})

	t.Run("nil", func(t *testing.T) {
		var r *domain.ResolvedRecipe
		assert.NoError(t, r.Close())
	})
}

func TestSummary(t *testing.T) {
	var s domain.Summary
	s.Add(domain.RunReport{Completed: []string{"a-1-0", "b-1-0"}, Skipped: []string{"c-1-0"}})
	s.Add(domain.RunReport{Completed: []string{"a-1-py34_0"}})

	assert.Equal(t, 3, s.Completed())
	assert.Equal(t, 1, s.Skipped())
}

func TestDependencyUnsatisfiedError(t *testing.T) {
	err := &domain.DependencyUnsatisfiedError{Spec: " numpy >=1.7 "}

	assert.Equal(t, "numpy", err.Name())
	assert.Equal(t, "no packages found matching:  numpy >=1.7 ", err.Error())
	require.ErrorIs(t, err, domain.ErrDependencyUnsatisfied)

	var target *domain.DependencyUnsatisfiedError
	wrapped := errors.Join(errors.New("context"), err)
	require.ErrorAs(t, wrapped, &target)
	assert.Equal(t, "numpy", target.Name())
}
