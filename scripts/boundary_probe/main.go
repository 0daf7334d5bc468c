// Command boundary_probe replays date-sensitive resolution endpoints around
// their interval bounds and reports where the observed status flips. Each
// entity family closes its intervals differently, so a probe covers the day
// before, the day of, and the day after each configured bound.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type probe struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Bound    string   `json:"bound"`
	Expected []int    `json:"expected"`
	Critical bool     `json:"critical"`
	Extra    []string `json:"extra_dates,omitempty"`
}

type config struct {
	Probes []probe `json:"probes"`
}

type result struct {
	Probe    probe
	Dates    []string
	Statuses []int
	Match    bool
	Err      error
}

func main() {
	var (
		base       string
		token      string
		probesPath string
		timeout    time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.StringVar(&token, "token", "", "Bearer token for authenticated endpoints")
	flag.StringVar(&probesPath, "probes", filepath.Join("scripts", "boundary_probe", "probes.json"), "Path to JSON probes file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	probes, err := loadProbes(probesPath)
	if err != nil {
		log.Fatalf("failed to load probes: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var breaking, diffs int
	var results []result

	for _, p := range probes {
		res := runProbe(client, base, token, p)
		if res.Err != nil || !res.Match {
			if p.Critical {
				breaking++
			} else {
				diffs++
			}
		}
		results = append(results, res)
	}

	printReport(results)
	fmt.Printf("Breaking flips: %d, Other diffs: %d\n", breaking, diffs)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadProbes(path string) ([]probe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Probes) == 0 {
		return nil, fmt.Errorf("no probes defined in %s", path)
	}
	return cfg.Probes, nil
}

// probeDates expands a bound date into day-before, day-of and day-after,
// followed by any extra dates the probe lists.
func probeDates(p probe) ([]string, error) {
	bound, err := time.Parse("2006-01-02", p.Bound)
	if err != nil {
		return nil, fmt.Errorf("invalid bound %q: %w", p.Bound, err)
	}
	dates := []string{
		bound.AddDate(0, 0, -1).Format("2006-01-02"),
		bound.Format("2006-01-02"),
		bound.AddDate(0, 0, 1).Format("2006-01-02"),
	}
	return append(dates, p.Extra...), nil
}

func runProbe(client *http.Client, base, token string, p probe) result {
	res := result{Probe: p}

	dates, err := probeDates(p)
	if err != nil {
		res.Err = err
		return res
	}
	res.Dates = dates

	for _, date := range dates {
		status, err := fetchStatus(client, base, token, p.Path, date)
		if err != nil {
			res.Err = err
			return res
		}
		res.Statuses = append(res.Statuses, status)
	}

	res.Match = len(p.Expected) == 0 || statusesEqual(res.Statuses, p.Expected)
	return res
}

func fetchStatus(client *http.Client, base, token, path, date string) (int, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	url := strings.TrimRight(base, "/") + path + sep + "at=" + date

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close() //nolint:errcheck
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func statusesEqual(got, want []int) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func printReport(results []result) {
	fmt.Println("Boundary Probe Report")
	fmt.Println("=====================")
	for _, res := range results {
		status := "OK"
		if res.Err != nil {
			status = "ERROR"
		} else if !res.Match {
			status = "FLIP"
		}
		fmt.Printf("[%s] %s (%s around %s)\n", status, res.Probe.Name, res.Probe.Path, res.Probe.Bound)
		if res.Err != nil {
			fmt.Printf("  Error: %v\n", res.Err)
			continue
		}
		for i, date := range res.Dates {
			fmt.Printf("  %s -> %d\n", date, res.Statuses[i])
		}
		if len(res.Probe.Expected) > 0 {
			fmt.Printf("  Expected: %v | Critical: %t\n", res.Probe.Expected, res.Probe.Critical)
		}
	}
}
