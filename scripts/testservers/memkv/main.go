// Command memkv serves the in-memory line-protocol KV store so kvbench can be
// pointed at something without a real deployment.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/torosent/kvbench/internal/kvtest"
)

func main() {
	port := flag.Int("port", 5555, "Listening port")
	host := flag.String("host", "127.0.0.1", "Listening address")
	delay := flag.Duration("delay", 0, "Delay before every reply")
	errorRate := flag.Float64("error-rate", 0, "Fraction of commands answered with an ERR reply (0.0-1.0)")
	dropRate := flag.Float64("drop-rate", 0, "Fraction of commands swallowed without a reply (0.0-1.0)")
	flag.Parse()

	if *port <= 0 {
		log.Fatalf("port must be > 0")
	}
	if *errorRate < 0 || *errorRate > 1 || *dropRate < 0 || *dropRate > 1 {
		log.Fatalf("error-rate and drop-rate must be between 0 and 1")
	}

	var (
		mu  sync.Mutex
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	)
	roll := func(p float64) bool {
		if p <= 0 {
			return false
		}
		mu.Lock()
		defer mu.Unlock()
		return rnd.Float64() < p
	}

	opt := kvtest.Options{Delay: *delay}
	if *errorRate > 0 {
		opt.Override = func(string) (string, bool) {
			if roll(*errorRate) {
				return "ERR Injected Failure", true
			}
			return "", false
		}
	}
	if *dropRate > 0 {
		opt.Mute = func(string) bool { return roll(*dropRate) }
	}

	srv, err := kvtest.NewServer(fmt.Sprintf("%s:%d", *host, *port), opt)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("memkv listening on %s", srv.Addr())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	if err := srv.Close(); err != nil {
		log.Printf("close: %v", err)
	}
	log.Printf("memkv served %d commands", srv.Commands())
}
