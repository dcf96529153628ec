package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/staylio/villa-onboard/internal/adapter"
	"github.com/staylio/villa-onboard/internal/backup"
	"github.com/staylio/villa-onboard/internal/client"
	"github.com/staylio/villa-onboard/internal/config"
	"github.com/staylio/villa-onboard/internal/logger"
	"github.com/staylio/villa-onboard/internal/tui"
	"github.com/staylio/villa-onboard/internal/wizard"
	"github.com/staylio/villa-onboard/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewClientLogger("villa-onboard-client")
	cfg, err := config.GetClientConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	serverAdapter, err := adapter.NewHTTPServerAdapter(cfg.Adapter, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create server adapter")
	}

	backupStore, err := backup.NewBadgerStore(cfg.Backup, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open backup store")
	}

	hostname, _ := os.Hostname()
	notifier := tui.NewProgramNotifier()
	session := wizard.NewSession(cfg.Sync, wizard.Deps{
		Adapter:     serverAdapter,
		Backup:      backupStore,
		Notifier:    notifier,
		Logger:      log,
		Fingerprint: backup.Fingerprint(hostname, runtime.GOOS),
	})

	if recordID := os.Getenv("STAYLIO_RECORD_ID"); recordID != "" {
		session.AttachRecord(recordID)
	}

	ui := tui.New(session, notifier, log)
	ws := workers.NewWorkers(workers.NewBackupSweeper(backupStore, log))

	app, err := client.NewApp(session, backupStore, ui, ws, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init client app error")
	}

	if err = app.Run(); err != nil {
		log.Fatal().Err(err).Msg("client run error")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
