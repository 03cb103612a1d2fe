package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"avito-scraper/config"
	"avito-scraper/models"
	"avito-scraper/scraper/avito"
	"avito-scraper/scraper/browser"
	"avito-scraper/services"
	"avito-scraper/storage"
	"avito-scraper/utils"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.Error("Could not load config: %v", err)
		return 1
	}

	closeLogger, err := utils.InitLogger(utils.LogOptions{
		Level:         cfg.LogLevel,
		JSON:          cfg.LogJSON,
		FluentEnabled: cfg.FluentEnabled,
		FluentHost:    cfg.FluentHost,
		FluentPort:    cfg.FluentPort,
		FluentTag:     "avito-scraper",
	})
	if err != nil {
		utils.Error("Could not init logger: %v", err)
		return 1
	}
	defer closeLogger()

	utils.Info("Scraper starting | regions=%d pages=%d flush=%d output=%s",
		len(cfg.Regions), cfg.MaxPages, cfg.FlushThreshold, cfg.OutputDir)

	stop := avito.NewStopSignal()
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		sig := <-signals
		utils.Warn("Received %v, finishing the current ad and saving", sig)
		stop.Stop()
	}()

	writers := storage.NewMultiWriter(storage.NewXMLWriter(cfg.OutputDir))
	insights := services.NewInsights()
	writers.Add(insights)

	if cfg.CSVDir != "" {
		writers.Add(storage.NewCSVWriter(cfg.CSVDir))
	}

	if cfg.DatabaseURL != "" {
		pgWriter, err := storage.NewPostgresWriter(cfg.DatabaseURL)
		if err != nil {
			utils.Error("Failed to connect PostgreSQL: %v", err)
			return 1
		}
		defer pgWriter.Close()

		if err := pgWriter.EnsureSchema(); err != nil {
			utils.Error("Failed to ensure PostgreSQL schema: %v", err)
			return 1
		}
		writers.Add(pgWriter)
	}

	if cfg.RabbitMQURL != "" {
		publisher, err := storage.NewAMQPPublisher(cfg.RabbitMQURL, cfg.RabbitMQQueue)
		if err != nil {
			utils.Error("Failed to connect RabbitMQ: %v", err)
			return 1
		}
		defer publisher.Close()
		writers.Add(publisher)
	}

	newDriver := func() (browser.Driver, error) {
		return browser.NewChromeDriver(browser.ChromeOptions{
			Headless:          cfg.Headless,
			BlockImages:       cfg.BlockImages,
			NavigationTimeout: cfg.NavigationTimeout,
			ElementTimeout:    cfg.ElementTimeout,
		})
	}

	runner := avito.NewRunner(cfg, newDriver, writers)
	results := avito.RunRegions(runner, avito.Jobs(cfg), stop)

	failed := printSummary(results)
	services.PrintReport(insights.Report())

	if failed > 0 {
		return 1
	}
	return 0
}

func printSummary(results []models.RunResult) int {
	total, failed := 0, 0

	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Println("║                SCRAPE COMPLETE               ║")
	fmt.Println("╠══════════════════════════════════════════════╣")
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = "FAILED"
			failed++
		}
		total += r.Records
		fmt.Printf("║  %-24s %6d  %-11s║\n", r.Region, r.Records, status)
	}
	fmt.Println("╠══════════════════════════════════════════════╣")
	fmt.Printf("║  Total listings : %-27d║\n", total)
	fmt.Println("╚══════════════════════════════════════════════╝")
	fmt.Println()

	return failed
}
