package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/grounded/internal/core/domain"
)

var healthJSON bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check pipeline dependencies",
	Long:  `Pings the embedding provider, the document store and the generation provider.`,
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	if healthService == nil {
		return errors.New("health service not configured")
	}

	health := healthService.Check(cmd.Context())

	if healthJSON {
		data, err := json.MarshalIndent(health, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling health: %w", err)
		}
		cmd.Println(string(data))
	} else {
		cmd.Printf("Status: %s\n\n", health.Status)
		printComponent(cmd, "Embedder", health.Embedder)
		printComponent(cmd, "Store", health.Store)
		printComponent(cmd, "Generator", health.Generator)
	}

	if health.Status != domain.HealthOK {
		return errors.New("one or more dependencies are unreachable")
	}
	return nil
}

func printComponent(cmd *cobra.Command, name string, component domain.ComponentHealth) {
	if component.Reachable {
		cmd.Printf("  %-10s ok\n", name)
		return
	}
	cmd.Printf("  %-10s unreachable: %s\n", name, component.Error)
}
