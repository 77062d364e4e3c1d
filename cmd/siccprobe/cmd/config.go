package cmd

import (
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/siccprobe/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  `Commands for managing siccprobe configuration.`,
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the default configuration",
	Long: `Dump the default configuration values in YAML format.

You can redirect this output to a file to create a configuration template:

  siccprobe config dump > .siccprobe.yaml

Configuration can be set via:
  - Config file (.siccprobe.yaml in the working or home directory, or --config)
  - Environment variables (SICCPROBE_TARGET_BASE_URL, SICCPROBE_SUITE_STRICT, etc.)
  - Command-line flags (for some options)

Environment variables use the SICCPROBE_ prefix and underscores for nesting.
Example: target.base_url -> SICCPROBE_TARGET_BASE_URL`,
	Args: cobra.NoArgs,
	RunE: runConfigDump,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)
}

// toMap converts a config struct to a map keyed by mapstructure tags,
// rendering durations and byte sizes the way they are written in files.
func toMap(v any) map[string]any {
	result := make(map[string]any)
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		key := fieldType.Tag.Get("mapstructure")
		if key == "" {
			key = fieldType.Name
		}

		switch v := field.Interface().(type) {
		case time.Duration:
			result[key] = v.String()
		case config.ByteSize:
			result[key] = v.String()
		default:
			if field.Kind() == reflect.Struct {
				result[key] = toMap(field.Interface())
			} else {
				result[key] = field.Interface()
			}
		}
	}
	return result
}

func runConfigDump(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Defaults()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	return writeConfigDump(cmd.OutOrStdout(), cfg)
}

func writeConfigDump(w io.Writer, cfg *config.Config) error {
	yamlData, err := yaml.Marshal(toMap(cfg))
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	fmt.Fprintln(w, "# siccprobe Configuration File")
	fmt.Fprintln(w, "# =============================")
	fmt.Fprintln(w, "#")
	fmt.Fprintln(w, "# All values shown below are defaults.")
	fmt.Fprintln(w, "# Duration format: 500ms, 5s, 1m")
	fmt.Fprintln(w, "# Size format: 512KiB, 10MiB, 1048576")
	fmt.Fprintln(w, "#")
	fmt.Fprintln(w, "# Environment variable overrides:")
	fmt.Fprintln(w, "#   SICCPROBE_TARGET_BASE_URL, SICCPROBE_TARGET_PORT")
	fmt.Fprintln(w, "#   SICCPROBE_TIMEOUTS_HEALTH, SICCPROBE_TIMEOUTS_REQUEST")
	fmt.Fprintln(w, "#   SICCPROBE_SUITE_EXTENDED, SICCPROBE_SUITE_STRICT")
	fmt.Fprintln(w, "#   SICCPROBE_LOGGING_LEVEL, SICCPROBE_LOGGING_FORMAT")
	fmt.Fprintln(w, "#   etc.")
	fmt.Fprintln(w, "#")
	fmt.Fprintln(w, "")
	_, err = w.Write(yamlData)
	return err
}
