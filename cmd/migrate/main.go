package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/MarcelWeber/TeamPilot/internal/pkg/env"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	// Lade Umgebungsvariablen aus .env-Datei
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	m, err := migrate.New("file://migrations", databaseURL())
	if err != nil {
		log.Fatalf("Fehler beim Initialisieren der Migration: %v", err)
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			log.Printf("Fehler beim Schließen der Migrationsressourcen: %v, %v", sourceErr, dbErr)
		}
	}()

	runCommand(m, os.Args[1], os.Args[2:])
}

func databaseURL() string {
	user := env.GetEnv("DB_USER", "teampilot")
	host := env.GetEnv("DB_HOST", "db")
	port := env.GetEnv("DB_PORT", "3306")
	name := env.GetEnv("DB_NAME", "teampilot_db")

	log.Printf("Verbinde mit Datenbank: %s@%s:%s/%s", user, host, port, name)

	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
		user, env.GetEnv("DB_PASSWORD", "teampilot"), host, port, name)
}

func runCommand(m *migrate.Migrate, command string, args []string) {
	switch command {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("Fehler beim Ausführen der Migrationen: %v", err)
		} else if err == migrate.ErrNoChange {
			log.Println("Keine Änderungen: Datenbank ist bereits auf dem neuesten Stand")
		} else {
			log.Println("Migrationen erfolgreich ausgeführt")
		}

	case "down":
		if err := m.Steps(-1); err != nil {
			log.Fatalf("Fehler beim Zurückrollen der letzten Migration: %v", err)
		}
		log.Println("Letzte Migration erfolgreich zurückgerollt")

	case "goto":
		version := parseVersion(args)
		if err := m.Migrate(uint(version)); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("Fehler beim Migrieren zur Version %d: %v", version, err)
		} else if err == migrate.ErrNoChange {
			log.Printf("Keine Änderungen: Datenbank ist bereits auf Version %d", version)
		} else {
			log.Printf("Migration zur Version %d erfolgreich", version)
		}

	case "force":
		// Setzt die Version ohne Migrationen auszuführen (dirty-Reparatur)
		version := parseVersion(args)
		if err := m.Force(int(version)); err != nil {
			log.Fatalf("Fehler beim Erzwingen der Version %d: %v", version, err)
		}
		log.Printf("Version %d erzwungen", version)

	case "status":
		version, dirty, err := m.Version()
		if err != nil {
			if err == migrate.ErrNilVersion {
				log.Println("Keine Migrationen wurden bisher ausgeführt")
			} else {
				log.Fatalf("Fehler beim Abrufen der Migrationsversion: %v", err)
			}
			return
		}
		dirtyStatus := ""
		if dirty {
			dirtyStatus = " (dirty)"
		}
		log.Printf("Aktuelle Migrationsversion: %d%s", version, dirtyStatus)

	default:
		printUsage()
		os.Exit(1)
	}
}

func parseVersion(args []string) uint64 {
	if len(args) < 1 {
		log.Fatalf("Bitte geben Sie eine Versionsnummer an")
	}
	version, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		log.Fatalf("Ungültige Versionsnummer: %v", err)
	}
	return version
}

func printUsage() {
	fmt.Println("Verwendung: go run cmd/migrate/main.go [command]")
	fmt.Println("Verfügbare Befehle:")
	fmt.Println("  up      - Führe alle ausstehenden Migrationen aus")
	fmt.Println("  down    - Rolle die letzte Migration zurück")
	fmt.Println("  goto N  - Migriere zur Version N")
	fmt.Println("  force N - Setze die Version N ohne Migrationen auszuführen")
	fmt.Println("  status  - Zeige aktuelle Migrationsversion an")
}
