package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"equipflow/sei/internal/db"
)

var (
	dbPath     string
	configPath string
	logLevel   string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:           "sei",
	Short:         "EquipFlow SEO content factory: classify, build, publish and maintain equipment pages",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the sei registry database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default: sei.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
}

// DiscoverDB picks the registry path using priority: env > flag > config > ./sei.db.
// The file is created on first open when it does not exist.
func DiscoverDB(configured string) string {
	if envPath := strings.TrimSpace(os.Getenv("SEI_DB")); envPath != "" {
		return envPath
	}
	if dbPath != "" {
		return dbPath
	}
	if configured != "" {
		return configured
	}
	return "sei.db"
}

// ResolveNode finds a node by full ID, unique ID prefix, or URL slug.
func ResolveNode(d *db.DB, reference string) (*db.Node, error) {
	// 1. Exact ID match
	node, err := d.GetNode(reference)
	if err == nil && node != nil {
		return node, nil
	}

	// 2. ID prefix match (≥6 hex/dash chars)
	if len(reference) >= 6 && isHexDash(reference) {
		matches, err := d.SearchByIDPrefix(reference, 10)
		if err == nil {
			switch len(matches) {
			case 1:
				return &matches[0], nil
			case 0:
				// fall through to slug lookup
			default:
				lines := make([]string, len(matches))
				for i, m := range matches {
					lines[i] = fmt.Sprintf("  %s %s", truncID(m.ID), m.URLSlug)
				}
				return nil, fmt.Errorf("ambiguous reference '%s'. %d matches:\n%s\nUse a full node ID instead.",
					reference, len(matches), strings.Join(lines, "\n"))
			}
		}
	}

	// 3. Slug
	node, err = d.GetNodeBySlug(strings.Trim(reference, "/"))
	if err == nil && node != nil {
		return node, nil
	}

	return nil, fmt.Errorf("node not found: %s", reference)
}

func isHexDash(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') || c == '-') {
			return false
		}
	}
	return true
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncTitle(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Find a safe UTF-8 boundary
	truncated := s[:max]
	for len(truncated) > 0 && truncated[len(truncated)-1]>>6 == 2 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "..."
}
