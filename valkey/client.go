package valkeystore

import (
	"context"
	"fmt"

	"meeting-analysis-api/utils"

	"github.com/valkey-io/valkey-go"
	"github.com/valkey-io/valkey-go/valkeycompat"
	"go.uber.org/zap"
)

var Client valkeycompat.Cmdable
var RawClient valkey.Client

// InitValkey connects to a single node or, with sentinel enabled, to the
// master named in cfg. Both globals are set on success.
func InitValkey(logger *zap.Logger, cfg utils.ValkeyConfig) error {
	var opt valkey.ClientOption

	if cfg.UseSentinel {
		if len(cfg.SentinelAddresses) == 0 {
			return fmt.Errorf("VALKEY_USE_SENTINEL is true but VALKEY_SENTINEL_ADDRESS is not set")
		}
		logger.Info("Initializing distributed cache service with sentinel configuration")
		opt = valkey.ClientOption{
			InitAddress: cfg.SentinelAddresses,
			Sentinel: valkey.SentinelOption{
				MasterSet: cfg.SentinelMasterName,
			},
		}
	} else {
		logger.Info("Initializing cache service")
		opt = valkey.ClientOption{
			InitAddress: []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)},
		}
	}

	vk, err := valkey.NewClient(opt)
	if err != nil {
		return fmt.Errorf("failed to connect to valkey: %w", err)
	}

	RawClient = vk
	Client = valkeycompat.NewAdapter(vk)
	logger.Info("Cache service initialized successfully")
	return nil
}

// Ping checks the connection; used by the health endpoint.
func Ping(ctx context.Context) error {
	if RawClient == nil {
		return fmt.Errorf("valkey not initialized")
	}
	return RawClient.Do(ctx, RawClient.B().Ping().Build()).Error()
}

func Close() {
	if RawClient != nil {
		RawClient.Close()
	}
}
