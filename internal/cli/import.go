package cli

import (
	"context"
	"log"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"live-quiz-service/internal/config"
	"live-quiz-service/internal/infra/file"
	"live-quiz-service/internal/infra/postgres"
)

// NewImportCmd loads YAML game files into Postgres so every instance can
// create sessions from them by name.
func NewImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE...",
		Short: "Import YAML game configs into Postgres",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), *configPath, args)
		},
	}
}

func runImport(ctx context.Context, configPath string, paths []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := migrateDB(ctx, db); err != nil {
		return err
	}

	store := postgres.NewConfigStore(db)
	for _, path := range paths {
		game, err := file.LoadFile(path)
		if err != nil {
			return err
		}
		if game.Name == "" {
			game.Name = fileConfigName(path)
		}
		if err := store.Save(ctx, game); err != nil {
			return err
		}
		log.Printf("imported %q from %s (%d questions)", game.Name, path, len(game.Questions))
	}
	return nil
}

// fileConfigName derives a config name from a game file path.
func fileConfigName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
