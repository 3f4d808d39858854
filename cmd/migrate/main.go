// migrate aplica o revierte el esquema del punto de venta con golang-migrate.
//
// Uso: go run ./cmd/migrate [-path dir] up|down|version|steps N|force V
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jhoicas/pos-api/internal/infrastructure/migration"
	"github.com/jhoicas/pos-api/pkg/config"
	"github.com/jhoicas/pos-api/pkg/logger"
)

func main() {
	var migrationsPath string
	flag.StringVar(&migrationsPath, "path", "", "directorio de migraciones (por defecto MIGRATIONS_PATH)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	if migrationsPath == "" {
		migrationsPath = cfg.Migrations.Path
	}
	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("ruta de migraciones")
	}

	m, err := migration.NewFromURL(cfg.DB.ConnectionString(), absPath, log.Component("migrate"))
	if err != nil {
		log.Fatal().Err(err).Str("path", absPath).Msg("inicializar migraciones")
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn().Err(err).Msg("cerrar migraciones")
		}
	}()

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		var n int
		if n, err = intArg(args); err == nil {
			err = m.Steps(n)
		}
	case "force":
		var v int
		if v, err = intArg(args); err == nil {
			err = m.Force(v)
		}
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = m.Version()
		if err == nil {
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("versión actual")
		}
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Error().Err(err).Str("command", command).Msg("migración fallida")
		os.Exit(1)
	}
}

func intArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s requiere un número", args[0])
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%s: número inválido %q", args[0], args[1])
	}
	return n, nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "uso: migrate [-path dir] up|down|version|steps N|force V")
}
