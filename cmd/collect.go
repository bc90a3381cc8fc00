package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	config "github.com/thirdweb-dev/tracecollector/configs"
	"github.com/thirdweb-dev/tracecollector/internal/common"
	"github.com/thirdweb-dev/tracecollector/internal/rpc"
	"github.com/thirdweb-dev/tracecollector/internal/storage"
	"github.com/thirdweb-dev/tracecollector/internal/worker"
)

var collectCmd = &cobra.Command{
	Use:   "collect <nodeUrl> <startBlock> <endBlock>",
	Short: "Trace every transaction of an inclusive block range",
	Long:  "Positional arguments override rpc.url, range.start and range.end from the config file and environment",
	Args:  cobra.MaximumNArgs(3),
	Run:   RunCollect,
}

func RunCollect(cmd *cobra.Command, args []string) {
	nodeURL, blockRange, err := parseCollectArgs(args, config.Cfg, viper.IsSet)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid arguments")
	}

	if config.Cfg.Metrics.Addr != "" {
		log.Info().Str("addr", config.Cfg.Metrics.Addr).Msg("Starting Metrics Server")
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(config.Cfg.Metrics.Addr, nil); err != nil {
				log.Error().Err(err).Msg("Metrics server error")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runCollect(ctx, nodeURL, blockRange, &config.Cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Error().Msg("Collection interrupted, no output written")
		} else {
			log.Error().Err(err).Msg("Collection failed")
		}
		stop()
		os.Exit(1)
	}
}

func runCollect(ctx context.Context, nodeURL string, blockRange common.BlockRange, cfg *config.Config) error {
	client, err := rpc.Initialize(ctx, nodeURL)
	if err != nil {
		return err
	}
	defer client.Close()
	log.Info().Str("url", client.GetURL()).Bool("websocket", client.IsWebsocket()).Msg("Connected to node")

	sinks, err := storage.NewSinks(ctx, &cfg.Output, &cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close sinks")
		}
	}()

	log.Info().Str("range", blockRange.String()).Str("output", sinks.File.Path()).Msg("Starting collection")
	result, err := worker.NewWorker(client).ProcessBlocks(ctx, blockRange)
	if err != nil {
		return err
	}

	if err := sinks.Write(ctx, blockRange, result); err != nil {
		return err
	}
	log.Info().Int("blocks", len(result.Blocks)).Int("txs", len(result.Txs)).Msg("Collection finished")
	return nil
}

// parseCollectArgs resolves the node URL and block range, letting positional arguments
// override the configured values. A block number that is neither given nor explicitly
// configured is an error. isSet reports whether a config key was set.
func parseCollectArgs(args []string, cfg config.Config, isSet func(key string) bool) (string, common.BlockRange, error) {
	nodeURL := cfg.RPC.URL
	start, end := cfg.Range.Start, cfg.Range.End

	if len(args) > 0 {
		nodeURL = args[0]
	}
	if nodeURL == "" {
		return "", common.BlockRange{}, fmt.Errorf("node URL is required")
	}

	var err error
	if len(args) > 1 {
		if start, err = parseBlockNumber("startBlock", args[1]); err != nil {
			return "", common.BlockRange{}, err
		}
	} else if !isSet("range.start") {
		return "", common.BlockRange{}, fmt.Errorf("startBlock is required")
	}
	if len(args) > 2 {
		if end, err = parseBlockNumber("endBlock", args[2]); err != nil {
			return "", common.BlockRange{}, err
		}
	} else if !isSet("range.end") {
		return "", common.BlockRange{}, fmt.Errorf("endBlock is required")
	}

	return nodeURL, common.NewBlockRange(start, end), nil
}

func parseBlockNumber(name, value string) (uint64, error) {
	number, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return number, nil
}
