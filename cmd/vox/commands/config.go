package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/spf13/cobra"

	"github.com/sabaimran/vox-locus/pkg/cli"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration and contexts.

Contexts allow you to manage multiple capture and engine setups,
similar to kubectl's context management.

Configuration is stored in ~/.voxlocus/config.yaml`,
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add a new context",
	Long: `Add a new context with the specified name.

Example:
  vox config add-context laptop --engine whisper/base --models ~/models
  vox config add-context cloud --engine openai/whisper-1 --api-key KEY
  vox config add-context studio --mic usb --mirror-bucket vox-archive`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		engine, err := cmd.Flags().GetString("engine")
		if err != nil {
			return fmt.Errorf("failed to read 'engine' flag: %w", err)
		}
		device, err := cmd.Flags().GetString("device")
		if err != nil {
			return fmt.Errorf("failed to read 'device' flag: %w", err)
		}
		models, err := cmd.Flags().GetString("models")
		if err != nil {
			return fmt.Errorf("failed to read 'models' flag: %w", err)
		}
		language, err := cmd.Flags().GetString("language")
		if err != nil {
			return fmt.Errorf("failed to read 'language' flag: %w", err)
		}
		beam, err := cmd.Flags().GetInt("beam")
		if err != nil {
			return fmt.Errorf("failed to read 'beam' flag: %w", err)
		}
		chunkSeconds, err := cmd.Flags().GetInt("chunk-seconds")
		if err != nil {
			return fmt.Errorf("failed to read 'chunk-seconds' flag: %w", err)
		}
		mic, err := cmd.Flags().GetString("mic")
		if err != nil {
			return fmt.Errorf("failed to read 'mic' flag: %w", err)
		}
		outputRoot, err := cmd.Flags().GetString("output-root")
		if err != nil {
			return fmt.Errorf("failed to read 'output-root' flag: %w", err)
		}
		apiKey, err := cmd.Flags().GetString("api-key")
		if err != nil {
			return fmt.Errorf("failed to read 'api-key' flag: %w", err)
		}
		baseURL, err := cmd.Flags().GetString("base-url")
		if err != nil {
			return fmt.Errorf("failed to read 'base-url' flag: %w", err)
		}
		mirrorBucket, err := cmd.Flags().GetString("mirror-bucket")
		if err != nil {
			return fmt.Errorf("failed to read 'mirror-bucket' flag: %w", err)
		}
		mirrorPrefix, err := cmd.Flags().GetString("mirror-prefix")
		if err != nil {
			return fmt.Errorf("failed to read 'mirror-prefix' flag: %w", err)
		}
		mirrorRegion, err := cmd.Flags().GetString("mirror-region")
		if err != nil {
			return fmt.Errorf("failed to read 'mirror-region' flag: %w", err)
		}
		mirrorEndpoint, err := cmd.Flags().GetString("mirror-endpoint")
		if err != nil {
			return fmt.Errorf("failed to read 'mirror-endpoint' flag: %w", err)
		}

		ctx := &cli.Context{
			Engine:        engine,
			Device:        device,
			Models:        models,
			Language:      language,
			BeamSize:      beam,
			ChunkSeconds:  chunkSeconds,
			CaptureDevice: mic,
			OutputRoot:    outputRoot,
			APIKey:        apiKey,
			BaseURL:       baseURL,
		}
		if mirrorBucket != "" {
			ctx.Mirror = &cli.MirrorConfig{
				Bucket:   mirrorBucket,
				Prefix:   mirrorPrefix,
				Region:   mirrorRegion,
				Endpoint: mirrorEndpoint,
			}
		}

		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.AddContext(name, ctx); err != nil {
			return err
		}

		cli.PrintSuccess("Context %q added successfully", name)
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(name); err != nil {
			return err
		}

		cli.PrintSuccess("Context %q deleted", name)
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(name); err != nil {
			return err
		}

		cli.PrintSuccess("Switched to context %q", name)
		return nil
	},
}

var configGetContextCmd = &cobra.Command{
	Use:   "get-context",
	Short: "Display the current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}

		if cfg.CurrentContext == "" {
			fmt.Println("No current context set")
			return nil
		}

		fmt.Println(cfg.CurrentContext)
		return nil
	},
}

var configListContextsCmd = &cobra.Command{
	Use:     "list-contexts",
	Aliases: []string{"get-contexts"},
	Short:   "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}

		if len(cfg.Contexts) == 0 {
			fmt.Println("No contexts configured")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tENGINE\tDEVICE\tMIRROR")

		for name, ctx := range cfg.Contexts {
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}
			engine := ctx.Engine
			if engine == "" {
				engine = "(default)"
			}
			mirror := ""
			if ctx.Mirror != nil {
				mirror = ctx.Mirror.Bucket
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", current, name, engine, ctx.Device, mirror)
		}

		w.Flush()
		return nil
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Config file: %s\n", cfg.Path())
		fmt.Printf("Current context: %s\n", cfg.CurrentContext)
		fmt.Printf("Contexts: %d\n", len(cfg.Contexts))

		if len(cfg.Contexts) > 0 {
			fmt.Println("\nContext details:")
			for name, ctx := range cfg.Contexts {
				fmt.Printf("\n  %s:\n", name)
				if ctx.Engine != "" {
					fmt.Printf("    Engine: %s\n", ctx.Engine)
				}
				if ctx.Device != "" {
					fmt.Printf("    Device: %s\n", ctx.Device)
				}
				if ctx.Models != "" {
					fmt.Printf("    Models: %s\n", ctx.Models)
				}
				if ctx.Language != "" {
					fmt.Printf("    Language: %s\n", ctx.Language)
				}
				if ctx.BeamSize > 0 {
					fmt.Printf("    Beam size: %d\n", ctx.BeamSize)
				}
				if ctx.ChunkSeconds > 0 {
					fmt.Printf("    Chunk: %ds\n", ctx.ChunkSeconds)
				}
				if ctx.CaptureDevice != "" {
					fmt.Printf("    Mic: %s\n", ctx.CaptureDevice)
				}
				if ctx.OutputRoot != "" {
					fmt.Printf("    Output root: %s\n", ctx.OutputRoot)
				}
				if ctx.APIKey != "" {
					fmt.Printf("    API Key: %s\n", cli.MaskAPIKey(ctx.APIKey))
				}
				if ctx.BaseURL != "" {
					fmt.Printf("    Base URL: %s\n", ctx.BaseURL)
				}
				if ctx.Mirror != nil {
					fmt.Printf("    Mirror: s3://%s/%s\n", ctx.Mirror.Bucket, ctx.Mirror.Prefix)
				}
			}
		}

		return nil
	},
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Emit the config file JSON schema",
	Long: `Emit the JSON schema of the configuration file.

Point an editor's YAML language server at it to validate and complete
~/.voxlocus/config.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := jsonschema.For[cli.Config](&jsonschema.ForOptions{})
		if err != nil {
			return err
		}
		return cli.Output(schema, cli.OutputOptions{
			Format: cli.FormatJSON,
			File:   outputFile,
		})
	},
}

func init() {
	// add-context flags
	configAddContextCmd.Flags().String("engine", "", "transcription engine id")
	configAddContextCmd.Flags().String("device", "", "inference device (cpu, gpu)")
	configAddContextCmd.Flags().String("models", "", "directory with local model files")
	configAddContextCmd.Flags().String("language", "", "spoken language hint")
	configAddContextCmd.Flags().Int("beam", 0, "decode beam width")
	configAddContextCmd.Flags().Int("chunk-seconds", 0, "chunk duration in seconds")
	configAddContextCmd.Flags().String("mic", "", "input device name substring")
	configAddContextCmd.Flags().String("output-root", "", "directory session directories are created under")
	configAddContextCmd.Flags().String("api-key", "", "API key for hosted engines")
	configAddContextCmd.Flags().String("base-url", "", "hosted engine base URL")
	configAddContextCmd.Flags().String("mirror-bucket", "", "S3 bucket session artifacts are mirrored to")
	configAddContextCmd.Flags().String("mirror-prefix", "", "key prefix inside the mirror bucket")
	configAddContextCmd.Flags().String("mirror-region", "", "mirror bucket region")
	configAddContextCmd.Flags().String("mirror-endpoint", "", "S3 endpoint override for MinIO and friends")

	// Add subcommands
	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configGetContextCmd)
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configSchemaCmd)
}
