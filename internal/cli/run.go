package cli

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/xln-finance/xln/internal/config"
	"github.com/xln-finance/xln/internal/environment"
	"github.com/xln-finance/xln/internal/jurisdiction"
	"github.com/xln-finance/xln/internal/rpc/grpcevm"
	"github.com/xln-finance/xln/internal/rpc/wsstream"
	"github.com/xln-finance/xln/internal/runtime"
	"github.com/xln-finance/xln/internal/storage/snapshotstore"
	"github.com/xln-finance/xln/internal/xlntypes"
)

var (
	runTickIntervalMs int64
	runStrict         bool
	runWSAddr         string
	runEvmRPCAddr     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot an Environment and drive it tick by tick",
	Long: `run loads a RuntimeConfig (defaults, optional --conf file, XLND_
environment overrides), creates every configured jurisdiction, opens the
configured storage backend, and calls tick(env, nowMs) in a loop at
--tick-interval until interrupted.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Int64Var(&runTickIntervalMs, "tick-interval", 1000, "milliseconds between ticks")
	runCmd.Flags().BoolVar(&runStrict, "strict-conservation", false, "abort and roll back any tick that violates reserve/collateral conservation")
	runCmd.Flags().StringVar(&runWSAddr, "ws-addr", "", "if set, serve a live snapshot websocket stream on this address (e.g. :8546)")
	runCmd.Flags().StringVar(&runEvmRPCAddr, "evm-rpc-addr", "", "if set, dial this address as a gRPC EvmBackend instead of the in-process no-op")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	store, err := snapshotstore.Open(snapshotstore.Config{
		Backend:   cfg.Storage.Backend,
		Path:      cfg.Storage.Path,
		CacheSize: cfg.Storage.CacheSize,
	})
	if err != nil {
		return fmt.Errorf("run: open storage: %w", err)
	}
	defer store.Close()

	env := environment.New()
	for _, jc := range cfg.Jurisdictions {
		if err := env.CreateXlnomy(jurisdiction.Config{
			Name:       xlntypes.JurisdictionName(jc.Name),
			EvmType:    jc.EvmType,
			RPCURL:     jc.RPCURL,
			BlockDelay: jc.BlockDelay,
			AutoGrid:   jc.AutoGrid,
		}); err != nil {
			return fmt.Errorf("run: create jurisdiction %s: %w", jc.Name, err)
		}
	}

	var evm runtime.EvmBackend
	if runEvmRPCAddr != "" {
		client, err := grpcevm.Dial(runEvmRPCAddr)
		if err != nil {
			return fmt.Errorf("run: dial evm rpc: %w", err)
		}
		defer client.Close()
		evm = client
		log.Printf("xlnd: using gRPC EvmBackend at %s", runEvmRPCAddr)
	}

	rt := runtime.New(env, evm)
	rt.StrictConservation = runStrict

	var hub *wsstream.Hub
	if runWSAddr != "" {
		hub = wsstream.NewHub()
		server := &http.Server{Addr: runWSAddr, Handler: hub}
		lis, err := net.Listen("tcp", runWSAddr)
		if err != nil {
			return fmt.Errorf("run: listen ws-addr: %w", err)
		}
		go func() {
			if err := server.Serve(lis); err != nil && err != http.ErrServerClosed {
				log.Printf("xlnd: websocket server stopped: %v", err)
			}
		}()
		defer server.Close()
		log.Printf("xlnd: streaming snapshots over websocket on %s", runWSAddr)
	}

	log.Printf("xlnd: running %d jurisdiction(s), tick every %dms", len(cfg.Jurisdictions), runTickIntervalMs)

	interval := time.Duration(runTickIntervalMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var nowMs int64
	for range ticker.C {
		nowMs += runTickIntervalMs
		result, err := rt.Tick(nowMs)
		if err != nil {
			log.Printf("xlnd: tick at %dms aborted: %v", nowMs, err)
			continue
		}
		if len(result.Errors) > 0 {
			log.Printf("xlnd: tick at %dms produced %d error(s): %v", nowMs, len(result.Errors), result.Errors)
		}
		if hub != nil && len(env.History) > 0 {
			if err := hub.Publish(env.History[len(env.History)-1]); err != nil {
				log.Printf("xlnd: publish snapshot: %v", err)
			}
		}
	}
	return nil
}

