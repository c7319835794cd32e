package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// tally counts responses by the statuses the API is expected to return.
type tally struct {
	ok, unauthorized, limited, other, failed atomic.Int64
}

func (t *tally) record(status int) {
	switch status {
	case http.StatusOK:
		t.ok.Add(1)
	case http.StatusUnauthorized:
		t.unauthorized.Add(1)
	case http.StatusTooManyRequests:
		t.limited.Add(1)
	default:
		t.other.Add(1)
	}
}

func (t *tally) total() int64 {
	return t.ok.Load() + t.unauthorized.Load() + t.limited.Load() + t.other.Load() + t.failed.Load()
}

func main() {
	targetURL := flag.String("url", "http://localhost:8000/ask", "Target URL for questions")
	apiKey := flag.String("api-key", "tenantA_key", "Tenant API key sent in X-API-KEY")
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	duration := flag.Duration("d", 30*time.Second, "Duration of the load test")
	rps := flag.Int("rps", 100, "Requests per second limit")
	question := flag.String("question", "Comment enregistrer une résiliation ?", "Question to ask")
	flag.Parse()

	payload, err := json.Marshal(map[string]string{"question": *question})
	if err != nil {
		log.Fatalf("failed to encode question: %v", err)
	}

	log.Printf("Starting load test on %s", *targetURL)
	log.Printf("Concurrency: %d, Duration: %s, RPS: %d", *concurrency, *duration, *rps)

	var wg sync.WaitGroup
	var counts tally
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(*rps), *concurrency)

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{
				Timeout: 5 * time.Second,
			}

			for {
				if err := limiter.Wait(ctx); err != nil {
					return // deadline reached
				}

				req, err := http.NewRequestWithContext(ctx, http.MethodPost, *targetURL, bytes.NewReader(payload))
				if err != nil {
					continue // Should not happen
				}
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("X-API-KEY", *apiKey)
				req.Header.Set("X-Request-ID", uuid.NewString())

				resp, err := client.Do(req)
				if err != nil {
					if !errors.Is(err, context.DeadlineExceeded) {
						counts.failed.Add(1)
					}
					continue
				}
				counts.record(resp.StatusCode)
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}
		}()
	}

	wg.Wait()

	totalRequests := counts.total()
	actualRPS := float64(totalRequests) / duration.Seconds()

	log.Println("Load test finished.")
	log.Printf("Total Requests: %d", totalRequests)
	log.Printf("Answered (200): %d", counts.ok.Load())
	log.Printf("Unauthorized (401): %d", counts.unauthorized.Load())
	log.Printf("Rate limited (429): %d", counts.limited.Load())
	log.Printf("Other statuses: %d", counts.other.Load())
	log.Printf("Transport errors: %d", counts.failed.Load())
	log.Printf("Actual RPS: %.2f", actualRPS)
}
