package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/petrzlen/callchain-golang/internal/config"
	"github.com/petrzlen/callchain-golang/internal/utils"
	"github.com/petrzlen/callchain-golang/pkg/audio"
	"github.com/petrzlen/callchain-golang/pkg/denoise"
	"github.com/petrzlen/callchain-golang/pkg/transcriber"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type appState struct {
	verbose bool
	envFile string

	chainPath string
	vars      map[string]string

	audioConfigPath string
	outPath         string
	noiseReduction  bool
	noNormalize     bool
	noTrim          bool

	out    io.Writer
	errOut io.Writer
	lookup func(string) string
	fs     afero.Fs

	// Nil means real providers.
	newGenerator config.GeneratorFactory
	capability   transcriber.Transcriber
}

func newRootCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "callchain",
		Short:         "Run prompt chains and transcribe audio files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			utils.SetupZerologTo(app.errOut, utils.ParseLevel(app.verbose))
			if app.envFile == "" {
				return nil
			}
			if err := godotenv.Load(app.envFile); err != nil {
				return fmt.Errorf("cannot load env file %s: %w", app.envFile, err)
			}
			return nil
		},
	}
	cmd.PersistentFlags().BoolVar(&app.verbose, "verbose", app.verbose, "Enable debug logs")
	cmd.PersistentFlags().StringVar(&app.envFile, "env-file", app.envFile, "Load environment variables from this file")

	cmd.AddCommand(newRunCmd(app))
	cmd.AddCommand(newTranscribeCmd(app))
	cmd.AddCommand(newPreprocessCmd(app))
	return cmd
}

func newRunCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a chain definition and print every step output",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.runChain()
		},
	}
	cmd.Flags().StringVar(&app.chainPath, "chain", "", "Chain definition YAML")
	cmd.Flags().StringToStringVar(&app.vars, "var", nil, "Initial variable, e.g. --var name=Alice")
	_ = cmd.MarkFlagRequired("chain")
	return cmd
}

func newTranscribeCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcribe <file>",
		Short: "Preprocess an audio file and print its transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.transcribe(args[0])
		},
	}
	bindAudioFlags(cmd, app)
	return cmd
}

// newPreprocessCmd writes the audio exactly as it would be uploaded, handy for listening to the pipeline.
func newPreprocessCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preprocess <file>",
		Short: "Preprocess an audio file and write the resulting WAV",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.preprocess(args[0])
		},
	}
	bindAudioFlags(cmd, app)
	cmd.Flags().StringVar(&app.outPath, "out", "", "Output WAV path")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func bindAudioFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.audioConfigPath, "config", "", "Audio config YAML")
	cmd.Flags().BoolVar(&app.noiseReduction, "noise-reduction", false, "Apply spectral gating")
	cmd.Flags().BoolVar(&app.noNormalize, "no-normalize", false, "Skip peak normalization")
	cmd.Flags().BoolVar(&app.noTrim, "no-trim", false, "Keep leading and trailing silence")
}

func (a *appState) runChain() error {
	cf, err := config.LoadChainFile(a.chainPath)
	if err != nil {
		return err
	}
	newGenerator := a.newGenerator
	if newGenerator == nil {
		newGenerator = config.ProviderGenerators(a.lookup)
	}
	ch, err := cf.Build(newGenerator)
	if err != nil {
		return err
	}

	results, err := ch.Run(cf.MergeVars(a.vars))
	if err != nil {
		return err
	}
	for _, name := range results.Names() {
		output, _ := results.Get(name)
		fmt.Fprintf(a.out, "== %s ==\n%s\n", name, output)
	}
	return nil
}

func (a *appState) audioConfig() (audio.Config, error) {
	cfg := audio.DefaultConfig()
	if a.audioConfigPath != "" {
		var err error
		if cfg, err = audio.LoadConfig(a.audioConfigPath); err != nil {
			return audio.Config{}, err
		}
	}
	if a.noiseReduction {
		cfg.NoiseReduction = true
	}
	if a.noNormalize {
		cfg.Normalize = false
	}
	if a.noTrim {
		cfg.TrimSilence = false
	}
	return cfg.WithCredentialFallback(a.lookup), nil
}

func (a *appState) processorOptions() ([]audio.ProcessorOption, error) {
	gate, err := denoise.NewSpectralGate(denoise.DefaultOptions())
	if err != nil {
		return nil, err
	}
	return []audio.ProcessorOption{audio.WithFs(a.fs), audio.WithNoiseReducer(gate)}, nil
}

func (a *appState) transcribe(path string) error {
	cfg, err := a.audioConfig()
	if err != nil {
		return err
	}
	opts, err := a.processorOptions()
	if err != nil {
		return err
	}
	t, err := audio.NewTranscriber(cfg, a.capability, opts...)
	if err != nil {
		return err
	}
	text, err := t.Transcribe(path)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, text)
	return nil
}

func (a *appState) preprocess(path string) error {
	cfg, err := a.audioConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid audio config: %w", err)
	}
	opts, err := a.processorOptions()
	if err != nil {
		return err
	}
	encoded, err := audio.NewProcessor(cfg, opts...).Preprocess(path)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(a.fs, a.outPath, encoded.Data, 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", a.outPath, err)
	}
	log.Info().Str("path", a.outPath).Int("sample_rate", encoded.SampleRate).Int("byte_size", len(encoded.Data)).Msg("wrote preprocessed audio")
	return nil
}

func main() {
	app := &appState{
		out:    os.Stdout,
		errOut: os.Stderr,
		lookup: os.Getenv,
		fs:     afero.NewOsFs(),
	}
	if err := newRootCmd(app).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
