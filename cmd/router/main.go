// Command router runs the IPv4 forwarding data plane against a set of TAP
// devices or bridged network interfaces, serving Prometheus metrics
// alongside it.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/packetplane/ipfwd/config"
	"github.com/packetplane/ipfwd/iface"
	"github.com/packetplane/ipfwd/link"
	"github.com/packetplane/ipfwd/metrics"
	"github.com/packetplane/ipfwd/router"
	"github.com/packetplane/ipfwd/routetable"
)

const shutdownTimeout = 2 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		flagInterfaces = "interfaces.conf"
		flagRoutes     = "routes.conf"
		flagMetrics    = ":9100"
		flagLogLevel   = "info"
		flagBridge     []string
		flagTap        []string
	)
	flag.StringVar(&flagInterfaces, "interfaces", flagInterfaces, "path to the interface table file")
	flag.StringVar(&flagRoutes, "routes", flagRoutes, "path to the routing table file")
	flag.StringVar(&flagMetrics, "metrics-addr", flagMetrics, "address to serve Prometheus metrics on")
	flag.StringVar(&flagLogLevel, "log-level", flagLogLevel, "debug, info, warn, or error")
	flag.StringSliceVar(&flagBridge, "bridge", nil, "existing NIC name to bridge a router interface onto (repeatable)")
	flag.StringSliceVar(&flagTap, "tap", nil, "name[=cidr] of a TAP device to create for a router interface (repeatable)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(flagLogLevel)}))
	slog.SetDefault(log)

	ifacesFile, err := os.Open(flagInterfaces)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}
	defer ifacesFile.Close()
	ifaces, err := config.LoadInterfaces(ifacesFile)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	routesFile, err := os.Open(flagRoutes)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}
	defer routesFile.Close()
	routes, err := config.LoadRoutes(routesFile)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	links := link.NewSet(log)
	for _, name := range flagBridge {
		p, err := link.NewBridgePort(name)
		if err != nil {
			return fmt.Errorf("router: %w", err)
		}
		links.Add(p)
	}
	for _, spec := range flagTap {
		name, cidr, _ := strings.Cut(spec, "=")
		var prefix netip.Prefix
		if cidr != "" {
			prefix, err = netip.ParsePrefix(cidr)
			if err != nil {
				return fmt.Errorf("router: tap %s: %w", spec, err)
			}
		}
		p, err := link.NewTapPort(name, prefix)
		if err != nil {
			return fmt.Errorf("router: %w", err)
		}
		links.Add(p)
	}

	m := metrics.New()
	r := router.New(iface.NewTable(ifaces), routetable.NewTable(routes), links, m, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go r.RunArpTimer(ctx)

	metricsSrv := &http.Server{Addr: flagMetrics, Handler: promhttp.Handler()}
	go func() {
		log.Info("metrics listening", "addr", flagMetrics)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", "err", err)
		}
	}()

	log.Info("router starting", "interfaces", len(ifaces), "routes", len(routes))
	links.Run(ctx, r.Demux)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	metricsSrv.Shutdown(shutdownCtx)
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
