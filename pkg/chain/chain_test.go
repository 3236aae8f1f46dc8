package chain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/petrzlen/callchain-golang/pkg/agent"
	"github.com/petrzlen/callchain-golang/pkg/prompt"
	"github.com/stretchr/testify/require"
)

type recordingGenerator struct {
	prompts []string
	failOn  string
}

func (g *recordingGenerator) Generate(p string) (string, error) {
	g.prompts = append(g.prompts, p)
	if g.failOn != "" && p == g.failOn {
		return "", errors.New("service unavailable")
	}
	return "Mock: " + p, nil
}

func TestRunThreadsOutputs(t *testing.T) {
	t.Parallel()

	model := &recordingGenerator{}
	c := New().
		Step("intro", model, prompt.StringTemplate("Hello {name}")).
		Step("echo", model, prompt.StringTemplate("Echo {intro}"))

	results, err := c.Run(map[string]string{"name": "World"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"intro": "Mock: Hello World",
		"echo":  "Mock: Echo Mock: Hello World",
	}, results.Map())
	require.Equal(t, []string{"intro", "echo"}, results.Names())
	require.Equal(t, []string{"Hello World", "Echo Mock: Hello World"}, model.prompts)
}

func TestRunCallsEveryStepOnceInOrder(t *testing.T) {
	t.Parallel()

	model := &recordingGenerator{}
	c := New()
	for i := 0; i < 5; i++ {
		c.Step(fmt.Sprintf("s%d", i), model, prompt.StringTemplate(fmt.Sprintf("prompt %d", i)))
	}

	results, err := c.Run(nil)
	require.NoError(t, err)
	require.Equal(t, 5, results.Len())
	require.Equal(t, []string{"prompt 0", "prompt 1", "prompt 2", "prompt 3", "prompt 4"}, model.prompts)
	for i := 0; i < 5; i++ {
		out, ok := results.Get(fmt.Sprintf("s%d", i))
		require.True(t, ok)
		require.Equal(t, fmt.Sprintf("Mock: prompt %d", i), out)
	}
}

func TestRunSeesInitialVarsAndEarlierSteps(t *testing.T) {
	t.Parallel()

	var seen map[string]string
	capture := prompt.TemplateFunc(func(vars map[string]string) (string, error) {
		seen = make(map[string]string, len(vars))
		for k, v := range vars {
			seen[k] = v
		}
		return "third", nil
	})
	model := &recordingGenerator{}

	_, err := New().
		Step("a", model, prompt.StringTemplate("one")).
		Step("b", model, prompt.StringTemplate("two")).
		Step("c", model, capture).
		Run(map[string]string{"x": "1", "y": "2"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"x": "1", "y": "2", "a": "Mock: one", "b": "Mock: two"}, seen)
}

func TestRunMissingVariableStopsBeforeGenerating(t *testing.T) {
	t.Parallel()

	model := &recordingGenerator{}
	c := New().
		Step("first", model, prompt.StringTemplate("Hello {name}")).
		Step("second", model, prompt.StringTemplate("Hello {missing}")).
		Step("third", model, prompt.StringTemplate("never"))

	results, err := c.Run(map[string]string{"name": "World"})
	require.Nil(t, results)

	var missing *prompt.MissingVariableError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "missing", missing.Name)
	require.Contains(t, err.Error(), `"second"`)
	require.Equal(t, []string{"Hello World"}, model.prompts)
}

func TestRunVariableFromLaterStepIsMissing(t *testing.T) {
	t.Parallel()

	model := &recordingGenerator{}
	_, err := New().
		Step("first", model, prompt.StringTemplate("{second}")).
		Step("second", model, prompt.StringTemplate("x")).
		Run(nil)

	var missing *prompt.MissingVariableError
	require.ErrorAs(t, err, &missing)
	require.Empty(t, model.prompts)
}

func TestRunGenerationFailureAborts(t *testing.T) {
	t.Parallel()

	model := &recordingGenerator{failOn: "two"}
	c := New().
		Step("one", model, prompt.StringTemplate("one")).
		Step("two", model, prompt.StringTemplate("two")).
		Step("three", model, prompt.StringTemplate("three"))

	results, err := c.Run(nil)
	require.Nil(t, results)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	require.Equal(t, "two", stepErr.Step)
	require.Equal(t, 1, stepErr.Index)
	require.EqualError(t, errors.Unwrap(err), "service unavailable")
	require.Equal(t, []string{"one", "two"}, model.prompts)
}

func TestRunDuplicateNamesOverwrite(t *testing.T) {
	t.Parallel()

	model := &recordingGenerator{}
	results, err := New().
		Step("draft", model, prompt.StringTemplate("v1")).
		Step("other", model, prompt.StringTemplate("{draft}")).
		Step("draft", model, prompt.StringTemplate("v2 after {draft}")).
		Run(nil)
	require.NoError(t, err)

	require.Equal(t, 2, results.Len())
	require.Equal(t, []string{"draft", "other"}, results.Names())
	draft, _ := results.Get("draft")
	require.Equal(t, "Mock: v2 after Mock: v1", draft)
}

func TestRunDoesNotMutateCallerVars(t *testing.T) {
	t.Parallel()

	vars := map[string]string{"name": "World"}
	_, err := New().Step("name", &recordingGenerator{}, prompt.StringTemplate("{name}")).Run(vars)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"name": "World"}, vars)
}

func TestRunIsRepeatable(t *testing.T) {
	t.Parallel()

	upper := agent.GeneratorFunc(func(p string) (string, error) { return "<" + p + ">", nil })
	c := New().
		Step("a", upper, prompt.StringTemplate("{in}")).
		Step("b", upper, prompt.StringTemplate("{a}{a}"))

	first, err := c.Run(map[string]string{"in": "x"})
	require.NoError(t, err)
	second, err := c.Run(map[string]string{"in": "x"})
	require.NoError(t, err)
	require.Equal(t, first.Map(), second.Map())
	require.Equal(t, 2, c.Len())
}

func TestRunEmptyChain(t *testing.T) {
	t.Parallel()

	results, err := New().Run(map[string]string{"a": "b"})
	require.NoError(t, err)
	require.Equal(t, 0, results.Len())
	require.Empty(t, results.Map())
}

func TestRunRejectsIncompleteSteps(t *testing.T) {
	t.Parallel()

	model := &recordingGenerator{}
	tests := map[string]*Chain{
		"nil generator": New().Step("a", model, prompt.StringTemplate("hi")).Step("b", nil, prompt.StringTemplate("x")),
		"nil template":  New().Step("a", model, prompt.StringTemplate("hi")).Step("b", model, nil),
	}
	for name, c := range tests {
		results, err := c.Run(nil)
		require.Nil(t, results, name)
		require.ErrorIs(t, err, ErrIncompleteStep, name)

		var stepErr *StepError
		require.ErrorAs(t, err, &stepErr, name)
		require.Equal(t, "b", stepErr.Step)
		require.Equal(t, 1, stepErr.Index)
	}
	require.Empty(t, model.prompts, "no step runs when one is incomplete")
}
