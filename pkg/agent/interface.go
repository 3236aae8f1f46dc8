package agent

// Generator turns a prompt into generated text. Implementations block until the
// underlying service answers; any error is fatal for whoever called.
type Generator interface {
	Generate(prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to Generator, handy for tests and local transforms.
type GeneratorFunc func(prompt string) (string, error)

func (f GeneratorFunc) Generate(prompt string) (string, error) {
	return f(prompt)
}
