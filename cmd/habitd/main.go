package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"habitd/internal/di"
	"habitd/internal/providers"
	"habitd/internal/store"
	"habitd/internal/structures"
	"habitd/internal/sync"
)

// toolkit is the hand-wired dependency set for one-shot commands that
// do not need the HTTP server.
type toolkit struct {
	conf   *structures.Config
	logger providers.Logger
	store  *store.Store
	codec  *sync.Codec
	engine *sync.Engine
	comp   sync.Compressor
}

func newToolkit(flags *structures.CliFlags) (*toolkit, error) {
	conf, err := providers.NewConfigProvider(flags)
	if err != nil {
		return nil, err
	}
	logger, err := providers.NewLogProvider(conf)
	if err != nil {
		return nil, err
	}
	st, err := providers.NewStoreProvider(conf, logger)
	if err != nil {
		logger.Close()
		return nil, err
	}
	comp, err := sync.NewZstdCompressor()
	if err != nil {
		st.Close()
		logger.Close()
		return nil, err
	}
	codec := sync.NewCodec(st, conf)
	metrics := providers.NewMetricsProvider(conf, st)
	engine := sync.NewEngine(st, codec, sync.NewTransport(conf, comp), conf, logger, metrics)
	return &toolkit{conf: conf, logger: logger, store: st, codec: codec, engine: engine, comp: comp}, nil
}

func (t *toolkit) Close() {
	t.comp.Close()
	_ = t.store.Close()
	t.logger.Close()
}

func main() {
	flags := &structures.CliFlags{}

	root := &cobra.Command{
		Use:           "habitd",
		Short:         "Habit and mood tracking daemon with cloud backup sync",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "config.yaml", "path to the YAML config file")
	root.PersistentFlags().BoolVar(&flags.DebugMode, "debug", false, "also log to stderr")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := di.InitApp(flags)
			return err
		},
	}

	var resolution string
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one backup sync attempt",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := sync.ParseResolution(resolution)
			if err != nil {
				return err
			}
			tk, err := newToolkit(flags)
			if err != nil {
				return err
			}
			defer tk.Close()

			result := tk.engine.Sync(context.Background(), res)
			fmt.Println(string(result.Status))
			if result.Message != "" {
				fmt.Println(result.Message)
			}
			if result.Status == sync.StatusConflict {
				return fmt.Errorf("resolve with --resolution=keep-local|use-cloud|merge")
			}
			if result.Status == sync.StatusError {
				return fmt.Errorf("sync failed")
			}
			return nil
		},
	}
	syncCmd.Flags().StringVar(&resolution, "resolution", "", "conflict resolution: keep-local, use-cloud or merge")

	exportCmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write a backup envelope of the full dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := newToolkit(flags)
			if err != nil {
				return err
			}
			defer tk.Close()

			backup, err := tk.codec.Build()
			if err != nil {
				return err
			}
			data, err := tk.codec.Serialize(backup)
			if err != nil {
				return err
			}
			return os.WriteFile(args[0], data, 0o644)
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the local dataset with a backup envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := newToolkit(flags)
			if err != nil {
				return err
			}
			defer tk.Close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			backup, err := tk.codec.Parse(data)
			if err != nil {
				return err
			}
			if err := tk.store.ReplaceAll(backup.Data.Stats, backup.Data.Entries); err != nil {
				return err
			}
			fmt.Printf("imported %d stats, %d entries\n", len(backup.Data.Stats), len(backup.Data.Entries))
			return nil
		},
	}

	root.AddCommand(serveCmd, syncCmd, exportCmd, importCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
