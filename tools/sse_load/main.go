// Command sse_load opens many concurrent connections to the dashboard's
// ticker SSE stream and reports connect/event/error counts. Used to size
// the hub's fan-out before exposing the dashboard publicly.
package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

type counters struct {
	connected atomic.Int64
	events    atomic.Int64
	failures  atomic.Int64
}

func main() {
	var (
		targetURL   string
		connections int
		duration    time.Duration
		rampUp      time.Duration
	)

	flag.StringVar(&targetURL, "url", "http://localhost:8085/ticker/stream", "SSE endpoint URL")
	flag.IntVar(&connections, "conns", 500, "number of concurrent connections")
	flag.DurationVar(&duration, "dur", 60*time.Second, "test duration (0 = until interrupted)")
	flag.DurationVar(&rampUp, "ramp", 0, "spread connection starts across this window")
	flag.Parse()

	if connections <= 0 {
		log.Fatalf("invalid conns: %d", connections)
	}
	if rampUp == 0 && connections > 100 {
		rampUp = time.Duration(connections/100) * time.Second
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	client := &http.Client{
		Transport: &http.Transport{
			MaxConnsPerHost:     connections + 100,
			MaxIdleConnsPerHost: connections + 100,
			DisableCompression:  true,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
	}

	log.Printf("starting SSE load: url=%s conns=%d dur=%s ramp=%s", targetURL, connections, duration, rampUp)

	var stats counters
	var wg sync.WaitGroup
	for i := 0; i < connections; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if rampUp > 0 {
				delay := rampUp * time.Duration(i) / time.Duration(connections)
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return
				}
			}
			consume(ctx, client, targetURL, &stats)
		}(i)
	}

	report := time.NewTicker(5 * time.Second)
	defer report.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-report.C:
				log.Printf("connected=%d events=%d failures=%d",
					stats.connected.Load(), stats.events.Load(), stats.failures.Load())
			}
		}
	}()

	wg.Wait()
	log.Printf("done: connected=%d events=%d failures=%d",
		stats.connected.Load(), stats.events.Load(), stats.failures.Load())
}

func consume(ctx context.Context, client *http.Client, url string, stats *counters) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		stats.failures.Add(1)
		return
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		stats.failures.Add(1)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		stats.failures.Add(1)
		return
	}
	stats.connected.Add(1)
	defer stats.connected.Add(-1)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "data:") {
			stats.events.Add(1)
		}
	}
}
