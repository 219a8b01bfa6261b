package main

import (
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"overlay-client/internal/bridge"
	"overlay-client/internal/control"
	"overlay-client/internal/events"
	"overlay-client/internal/harness"
	"overlay-client/internal/metrics"
	"overlay-client/internal/queue"
	"overlay-client/internal/scenario"
)

func main() {
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Fatalf("Failed to create logs directory: %v", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logFile, err := os.OpenFile("logs/log_"+timestamp+".log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()

	log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	cfg := flag.String("scenario", "scenario.yaml", "YAML or JSON scenario description")
	flag.Parse()

	sc, err := scenario.Load(*cfg)
	if err != nil {
		log.Fatalf("scenario: %v", err)
	}

	bus := events.NewBus()
	coll := metrics.NewCollector()

	// Everything a node reports flows through one controller queue, fanned
	// out to the metrics collector and the websocket subscribers.
	controllerQ := queue.New[events.Event]()
	go func() {
		for ev := range controllerQ.C() {
			coll.Observe(ev)
			bus.Publish(ev)
		}
	}()

	h := harness.Build(sc, controllerQ)

	if sc.HTTPAddr != "" {
		srv := control.NewServer(bus, h.Supervisors)
		go func() {
			if err := srv.ListenAndServe(sc.HTTPAddr); err != nil {
				log.Printf("control server: %v", err)
			}
		}()
	}

	if sc.MQTTBroker != "" {
		b, err := bridge.New(sc.MQTTBroker, "overlay-client", h.Supervisors)
		if err != nil {
			log.Fatalf("mqtt bridge: %v", err)
		}
		defer b.Disconnect()
	}

	log.Printf("Starting %d client nodes...", len(sc.Clients))
	h.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	s := <-sigCh
	log.Printf("received signal %v: shutting down...", s)

	h.Quit()
	h.Wait()
	controllerQ.Close()

	if sc.MetricsFile != "" {
		if err := coll.Flush(sc.MetricsFile); err != nil {
			log.Printf("flush-metrics: %v", err)
		} else {
			log.Printf("stats written to %s", sc.MetricsFile)
		}
	}
	log.Println("run complete")
}
