// Package main is a load benchmark for a running firewatch server.
// It posts synthetic readings to /data from a pool of workers, one scenario
// at a time, and records request latencies and alert counts as CSV.
//
// Prerequisites:
// - firewatch serve listening on the target address
//
// Usage: go run ./benchmark [base-url]
//
//	base-url: server root, defaults to http://127.0.0.1:5000
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// BenchmarkResult holds the outcome of one scenario.
type BenchmarkResult struct {
	Scenario string
	Requests int
	Failures int
	Alerts   int
	P50      time.Duration
	P95      time.Duration
	Max      time.Duration
	Elapsed  time.Duration
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	BaseURL  string
	Timeout  time.Duration
	Workers  int
	Requests int
	Devices  int
}

// scenario builds the payload for request i on a device.
type scenario struct {
	name    string
	payload func(rng *rand.Rand, i int) map[string]any
}

type ingestReply struct {
	ShouldAlert bool `json:"should_alert"`
}

func main() {
	baseURL := "http://127.0.0.1:5000"
	if len(os.Args) == 2 {
		baseURL = os.Args[1]
	} else if len(os.Args) > 2 {
		fmt.Printf("Usage: %s [base-url]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		BaseURL:  baseURL,
		Timeout:  5 * time.Second,
		Workers:  8,
		Requests: 2000,
		Devices:  16,
	}

	client := resty.New().
		SetBaseURL(config.BaseURL).
		SetTimeout(config.Timeout).
		SetHeader("Content-Type", "application/json")

	if err := checkPrerequisites(client); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(client, config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies the server answers its health check.
func checkPrerequisites(client *resty.Client) error {
	resp, err := client.R().Get("/health")
	if err != nil {
		return fmt.Errorf("server not reachable: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("health check returned %s", resp.Status())
	}
	return nil
}

func scenarios() []scenario {
	return []scenario{
		{name: "calm", payload: func(rng *rand.Rand, _ int) map[string]any {
			return map[string]any{
				"temperature": 20 + rng.Float64()*5,
				"humidity":    45 + rng.Float64()*10,
				"eco2":        400 + rng.Float64()*200,
				"tvoc":        50 + rng.Float64()*100,
			}
		}},
		{name: "smoldering", payload: func(rng *rand.Rand, i int) map[string]any {
			return map[string]any{
				"temperature": 24 + float64(i%20)*0.5,
				"humidity":    35 - float64(i%20)*0.3,
				"eco2":        800 + float64(i%20)*30,
				"tvoc":        200 + float64(i%20)*15,
			}
		}},
		{name: "fire", payload: func(rng *rand.Rand, _ int) map[string]any {
			return map[string]any{
				"temp": 35 + rng.Float64()*10,
				"hum":  15 + rng.Float64()*10,
				"eco2": 1500 + rng.Float64()*500,
				"tvoc": 600 + rng.Float64()*300,
			}
		}},
	}
}

// runBenchmarks executes every scenario against the server.
func runBenchmarks(client *resty.Client, config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %s, %d workers, %d requests per scenario, %d devices\n",
		config.BaseURL, config.Workers, config.Requests, config.Devices)

	for _, sc := range scenarios() {
		fmt.Printf("Running %s scenario\n", sc.name)
		result := runScenario(client, config, sc)
		fmt.Printf("  p50: %s, p95: %s, alerts: %d, failures: %d\n", result.P50, result.P95, result.Alerts, result.Failures)
		results = append(results, result)
	}

	return results
}

// runScenario fans requests out across workers and aggregates latencies.
func runScenario(client *resty.Client, config BenchmarkConfig, sc scenario) BenchmarkResult {
	jobs := make(chan int)
	var (
		mu        sync.Mutex
		latencies []time.Duration
		failures  int
		alerts    int
		wg        sync.WaitGroup
	)

	start := time.Now()
	for w := range config.Workers {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(seed, uint64(time.Now().UnixNano())))
			for i := range jobs {
				payload := sc.payload(rng, i)
				payload["device_id"] = fmt.Sprintf("bench_%s_%02d", sc.name, i%config.Devices)

				var reply ingestReply
				began := time.Now()
				resp, err := client.R().SetBody(payload).SetResult(&reply).Post("/data")
				took := time.Since(began)

				mu.Lock()
				if err != nil || resp.IsError() {
					failures++
				} else {
					latencies = append(latencies, took)
					if reply.ShouldAlert {
						alerts++
					}
				}
				mu.Unlock()
			}
		}(uint64(w))
	}

	for i := range config.Requests {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	result := BenchmarkResult{
		Scenario: sc.name,
		Requests: config.Requests,
		Failures: failures,
		Alerts:   alerts,
		Elapsed:  time.Since(start),
	}
	if len(latencies) > 0 {
		slices.Sort(latencies)
		result.P50 = percentile(latencies, 0.50)
		result.P95 = percentile(latencies, 0.95)
		result.Max = latencies[len(latencies)-1]
	}
	return result
}

// percentile reads from an ascending slice.
func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/firewatch_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"scenario", "requests", "failures", "alerts", "p50_ms", "p95_ms", "max_ms", "elapsed_s"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range results {
		record := []string{
			r.Scenario,
			fmt.Sprint(r.Requests),
			fmt.Sprint(r.Failures),
			fmt.Sprint(r.Alerts),
			fmt.Sprintf("%.3f", float64(r.P50.Microseconds())/1000),
			fmt.Sprintf("%.3f", float64(r.P95.Microseconds())/1000),
			fmt.Sprintf("%.3f", float64(r.Max.Microseconds())/1000),
			fmt.Sprintf("%.3f", r.Elapsed.Seconds()),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, r := range results {
		rate := float64(r.Requests-r.Failures) / r.Elapsed.Seconds()
		fmt.Printf("  %-12s: %.0f req/s, p50: %s, p95: %s, max: %s, alerts: %d\n",
			r.Scenario, rate, r.P50, r.P95, r.Max, r.Alerts)
	}
}
