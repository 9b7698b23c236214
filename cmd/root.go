package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/maskmap/internal/bake"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "maskmap <albedo>",
	Short: "Generate a Bakin mask map and auxiliary textures from an albedo texture",
	Long: `maskmap derives emissive, roughness, metallic and specular textures from an
albedo texture, optionally a normal map, and packs four of them into a mask map
with R=emissive, G=roughness, B=metallic and A=specular.

Any of the four maps may be supplied as an override image instead; overrides are
resampled to the albedo size. Outputs are written as PNG into
<albedo>_bakin_textures/ next to the albedo unless --output-dir is given.

Examples:
  # Derive everything from the albedo
  maskmap textures/stone.png

  # Also generate a normal map and use an existing metallic texture
  maskmap textures/stone.png --normal --metallic textures/stone_metal.tga

  # Write somewhere else
  maskmap textures/stone.png -o build/stone

  # Start HTTP server
  maskmap serve --port 8080`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// If no args, show help
		if len(args) == 0 {
			return cmd.Help()
		}
		return runBake(cmd, args[0])
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.maskmap.yaml)")

	// Override textures
	rootCmd.Flags().String("emissive", "", "emissive texture (default: all black)")
	rootCmd.Flags().String("roughness", "", "roughness texture (default: derived from albedo)")
	rootCmd.Flags().String("metallic", "", "metallic texture (default: all black)")
	rootCmd.Flags().String("specular", "", "specular texture (default: derived from albedo)")

	// Output options
	rootCmd.Flags().BoolP("normal", "n", false, "generate a normal map")
	rootCmd.Flags().StringP("output-dir", "o", "", "output directory (default: <albedo>_bakin_textures next to the albedo)")
	rootCmd.Flags().BoolP("quiet", "q", false, "do not print progress")

	// Bind flags to viper for root command
	viper.BindPFlag("emissive", rootCmd.Flags().Lookup("emissive"))
	viper.BindPFlag("roughness", rootCmd.Flags().Lookup("roughness"))
	viper.BindPFlag("metallic", rootCmd.Flags().Lookup("metallic"))
	viper.BindPFlag("specular", rootCmd.Flags().Lookup("specular"))
	viper.BindPFlag("normal", rootCmd.Flags().Lookup("normal"))
	viper.BindPFlag("output-dir", rootCmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("quiet", rootCmd.Flags().Lookup("quiet"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".maskmap" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".maskmap")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// configFromViper assembles a bake configuration for albedo from the bound
// flags, config file and environment.
func configFromViper(v *viper.Viper, albedo string) *bake.Config {
	return &bake.Config{
		AlbedoPath:     albedo,
		EmissivePath:   v.GetString("emissive"),
		RoughnessPath:  v.GetString("roughness"),
		MetallicPath:   v.GetString("metallic"),
		SpecularPath:   v.GetString("specular"),
		GenerateNormal: v.GetBool("normal"),
		OutputDir:      v.GetString("output-dir"),
	}
}

func runBake(cmd *cobra.Command, albedo string) error {
	cfg := configFromViper(viper.GetViper(), albedo)

	var progress bake.ProgressFunc
	if !viper.GetBool("quiet") {
		progress = func(fraction float64, label string) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%.2f%%: %s\n", fraction*100, label)
		}
	}

	res, err := bake.New(afero.NewOsFs()).Run(cmd.Context(), cfg, progress)
	if err != nil {
		return errors.New(describeError(err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Textures and mask map generated in %s\n", res.Outputs.Dir)
	return nil
}

// describeError renders a pipeline failure for the terminal.
func describeError(err error) string {
	var be *bake.Error
	if !errors.As(err, &be) {
		return err.Error()
	}
	switch be.Kind {
	case bake.InvalidInput:
		return fmt.Sprintf("failed to read albedo texture %s: %v", be.Path, be.Err)
	case bake.DecodeError:
		return fmt.Sprintf("failed to decode %s texture %s: %v", be.Stage, be.Path, be.Err)
	case bake.EncodeError:
		return fmt.Sprintf("failed to write %s: %v", be.Path, be.Err)
	default:
		return fmt.Sprintf("failed to generate %s texture: %v", be.Stage, be.Err)
	}
}
