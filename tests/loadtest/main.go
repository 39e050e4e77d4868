package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const (
	baseURL      = "http://127.0.0.1:8090"
	numWorkers   = 25
	testDuration = 10 * time.Second
	numStats     = 8
	numDays      = 90
)

var statNames = []string{"mood", "sleep", "energy", "stress", "focus", "exercise", "social", "diet"}

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

var statIDs []int64

func main() {
	fmt.Println("=== habitd Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s\n", numWorkers, testDuration)
	fmt.Printf("Stats: %d | Day window: %d\n\n", numStats, numDays)

	// Wait for server
	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	if !seedStats() {
		return
	}

	// Phase 1: Write-heavy check-in load
	fmt.Println("\n--- Phase 1: Seeding entries (POST /api/entries) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		return doCreateEntry(rng)
	})

	// Phase 2: Mixed read/write load
	fmt.Println("\n--- Phase 2: Mixed load (50% POST, 50% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.50:
			return doCreateEntry(rng)
		case r < 0.70:
			return doListEntries(rng)
		case r < 0.90:
			return doSummary(rng)
		default:
			return doListStats()
		}
	})

	// Phase 3: Read-heavy dashboard load
	fmt.Println("\n--- Phase 3: Read-heavy load (10% POST, 90% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.10:
			return doCreateEntry(rng)
		case r < 0.40:
			return doListEntries(rng)
		case r < 0.85:
			return doSummary(rng)
		default:
			return doListStats()
		}
	})
}

// seedStats ensures the fixed stat set exists and records its ids.
func seedStats() bool {
	for _, name := range statNames[:numStats] {
		body, _ := json.Marshal(map[string]any{"name": name, "color": "#6C63FF"})
		resp, err := httpClient.Post(baseURL+"/api/stats", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Printf("FAILED: seed stat %s: %v\n", name, err)
			return false
		}
		var created struct {
			ID int64 `json:"id"`
		}
		json.NewDecoder(resp.Body).Decode(&created)
		resp.Body.Close()
		if created.ID > 0 {
			statIDs = append(statIDs, created.ID)
		}
	}
	fmt.Printf("Seeded %d stats\n", len(statIDs))
	return len(statIDs) > 0
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-26s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + repeat("-", 92))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		avg := avgDuration(s.latencies)
		p50 := percentile(s.latencies, 0.50)
		p95 := percentile(s.latencies, 0.95)
		p99 := percentile(s.latencies, 0.99)

		fmt.Printf("  %-26s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + repeat("-", 92))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func doCreateEntry(rng *rand.Rand) result {
	statID := statIDs[rng.Intn(len(statIDs))]
	date := time.Now().UTC().AddDate(0, 0, -rng.Intn(numDays)).Format("2006-01-02")
	body, _ := json.Marshal(map[string]any{
		"statId": statID,
		"value":  rng.Intn(11),
		"date":   date,
	})

	start := time.Now()
	resp, err := httpClient.Post(baseURL+"/api/entries", "application/json", bytes.NewReader(body))
	latency := time.Since(start)
	if err != nil {
		return result{endpoint: "POST /api/entries", latency: latency, err: true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{endpoint: "POST /api/entries", status: resp.StatusCode, latency: latency, err: resp.StatusCode >= 400}
}

func doListEntries(rng *rand.Rand) result {
	statID := statIDs[rng.Intn(len(statIDs))]
	url := fmt.Sprintf("%s/api/entries?stat=%d&limit=100", baseURL, statID)
	return doGet("GET /api/entries", url)
}

func doSummary(rng *rand.Rand) result {
	days := []int{7, 14, 30, 90}[rng.Intn(4)]
	url := fmt.Sprintf("%s/api/summary?days=%d", baseURL, days)
	return doGet("GET /api/summary", url)
}

func doListStats() result {
	return doGet("GET /api/stats", baseURL+"/api/stats")
}

func doGet(endpoint, url string) result {
	start := time.Now()
	resp, err := httpClient.Get(url)
	latency := time.Since(start)
	if err != nil {
		return result{endpoint: endpoint, latency: latency, err: true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{endpoint: endpoint, status: resp.StatusCode, latency: latency, err: resp.StatusCode >= 400}
}

func avgDuration(durs []time.Duration) time.Duration {
	if len(durs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range durs {
		sum += d
	}
	return sum / time.Duration(len(durs))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
