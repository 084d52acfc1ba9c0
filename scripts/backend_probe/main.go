package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/noah-isme/thesis-portal/internal/backend"
	"github.com/noah-isme/thesis-portal/internal/service"
)

type probeStep struct {
	Name     string
	Duration time.Duration
	Err      error
}

func main() {
	_ = godotenv.Load()

	var (
		baseURL  string
		cedula   string
		password string
		timeout  time.Duration
		asJSON   bool
		verbose  bool
	)

	flag.StringVar(&baseURL, "backend", envOr("BACKEND_BASE_URL", "http://localhost:3000"), "Thesis backend base URL")
	flag.StringVar(&cedula, "cedula", os.Getenv("PROBE_CEDULA"), "Cedula of the probing user")
	flag.StringVar(&password, "password", os.Getenv("PROBE_PASSWORD"), "Password of the probing user")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "Per-request timeout")
	flag.BoolVar(&asJSON, "json", false, "Print the rendered dashboard as JSON")
	flag.BoolVar(&verbose, "v", false, "Log every backend call")
	flag.Parse()

	if cedula == "" || password == "" {
		log.Fatal("cedula and password are required (flags or PROBE_CEDULA / PROBE_PASSWORD)")
	}

	logr := zap.NewNop()
	if verbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			log.Fatalf("failed to init logger: %v", err)
		}
		logr = dev
	}
	defer logr.Sync() //nolint:errcheck

	client, err := backend.New(backend.Config{BaseURL: baseURL, Timeout: timeout, Logger: logr})
	if err != nil {
		log.Fatalf("invalid backend url: %v", err)
	}

	ctx := context.Background()
	var steps []probeStep

	start := time.Now()
	identity, err := client.Login(ctx, cedula, password)
	steps = append(steps, probeStep{Name: "login", Duration: time.Since(start), Err: err})
	if err != nil {
		printReport(steps)
		os.Exit(1)
	}

	catalogs := service.NewCatalogService(client, nil, nil, 0, logr, false)
	router := service.NewDashboardRouter(service.DashboardRouterParams{
		Backend: client,
		Events:  catalogs,
		Logger:  logr,
	})

	start = time.Now()
	state, err := router.LoadInitialData(ctx, "probe", identity)
	steps = append(steps, probeStep{Name: "dashboard " + string(state.Variant), Duration: time.Since(start), Err: err})

	printReport(steps)
	fmt.Printf("User: %s (%s)\n", identity.Nombre, identity.Rol)
	fmt.Printf("Variant: %s | Status: %s | Projects: %d\n", state.Variant, state.Status, len(state.Projects))
	if state.Error != "" {
		fmt.Printf("Error: %s\n", state.Error)
	}

	if asJSON {
		view := service.NewViewService(nil, "", nil).Render(identity, state)
		out, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			log.Fatalf("failed to encode view: %v", err)
		}
		fmt.Println(string(out))
	}

	if err != nil || state.Status != service.LoadReady {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printReport(steps []probeStep) {
	fmt.Println("Backend Probe Report")
	fmt.Println("====================")
	for _, s := range steps {
		status := "OK"
		if s.Err != nil {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s (%s)\n", status, s.Name, s.Duration.Round(time.Millisecond))
		if s.Err != nil {
			fmt.Printf("  Error: %v\n", s.Err)
		}
	}
}
